package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// InsecureJWTSecret is the non-production fallback used when JWT_SECRET
// is unset. main refuses to start with it when APP_ENV=prod.
const InsecureJWTSecret = "insecure-dev-secret-change-me"

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string

	CORSOrigins []string

	ShieldRequests  int
	ShieldWindow    time.Duration
	ShieldRedisAddr string
	ShieldRedisPass string
	ShieldRedisDB   int

	OTLPEndpoint string
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		JWTSecret: getEnv("JWT_SECRET", InsecureJWTSecret),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "")),

		ShieldRequests:  getEnvInt("SHIELD_REQUESTS", 100),
		ShieldWindow:    time.Duration(getEnvInt("SHIELD_WINDOW_SECONDS", 60)) * time.Second,
		ShieldRedisAddr: getEnv("SHIELD_REDIS_ADDR", ""),
		ShieldRedisPass: getEnv("SHIELD_REDIS_PASSWORD", ""),
		ShieldRedisDB:   getEnvInt("SHIELD_REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// UsingInsecureSecret reports whether the JWT secret is the placeholder.
func (c Config) UsingInsecureSecret() bool {
	return c.JWTSecret == InsecureJWTSecret
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
