package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/auth"
	"github.com/kamaumbugua/userhub/internal/config"
	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/http/middlewares"
	"github.com/kamaumbugua/userhub/internal/observability"
	"github.com/kamaumbugua/userhub/internal/repo/postgres"
	"github.com/kamaumbugua/userhub/internal/security"
	"github.com/kamaumbugua/userhub/internal/session"
)

type UserDirectory interface {
	Create(ctx context.Context, name, email, passwordHash string, role user.Role) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthHandler struct {
	users    UserDirectory
	jwt      *auth.Manager
	sessions *session.Transport
	prom     *observability.Prom
}

func NewAuthHandler(users UserDirectory, jwtManager *auth.Manager, sessions *session.Transport, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:    users,
		jwt:      jwtManager,
		sessions: sessions,
		prom:     prom,
	}
}

func (h *AuthHandler) count(op, result string) {
	if h.prom != nil {
		h.prom.AuthResults.WithLabelValues(op, result).Inc()
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		h.count("sign_up", "rejected")
		return
	}

	req.Name = user.NormalizeName(req.Name)
	req.Email = user.NormalizeEmail(req.Email)

	// the [2,255] rule applies to the trimmed name, which binding tags
	// cannot express
	if !user.ValidName(req.Name) {
		h.count("sign_up", "rejected")
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{
			{Field: "name", Rule: "min", Param: "2", Message: "must be at least 2"},
		}})
		return
	}

	role := req.Role

	if role == "" {
		role = user.RoleUser
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.count("sign_up", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "password hashing failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.Name, req.Email, hash, role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			h.count("sign_up", "rejected")
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		h.count("sign_up", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "user creation failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.Sign(u.ID, u.Email, u.Role)

	if err != nil {
		h.count("sign_up", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "token signing failed", "err", err)
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.sessions.Set(ctx, token)
	h.count("sign_up", "ok")

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req user.SignInRequest

	if !BindJSON(ctx, &req) {
		h.count("sign_in", "rejected")
		return
	}

	req.Email = user.NormalizeEmail(req.Email)

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// unknown email and wrong password produce the same response so
	// callers cannot probe which addresses are registered
	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.count("sign_in", "rejected")
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		h.count("sign_in", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "user lookup failed", "err", err)
		RespondInternal(ctx, "Could not sign in")
		return
	}

	ok, err := security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.count("sign_in", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "password check failed", "err", err, "user_id", foundUser.ID)
		RespondInternal(ctx, "Could not sign in")
		return
	}

	if !ok {
		h.count("sign_in", "rejected")
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.Sign(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		h.count("sign_in", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "token signing failed", "err", err)
		RespondInternal(ctx, "Could not sign in")
		return
	}

	h.sessions.Set(ctx, token)
	h.count("sign_in", "ok")

	ctx.JSON(http.StatusOK, gin.H{"user": foundUser})
}

// SignOut clears the cookie unconditionally; there is no server-side
// session state to tear down.
func (h *AuthHandler) SignOut(ctx *gin.Context) {
	h.sessions.Clear(ctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Me returns the identity attached by the auth middleware; it performs
// no verification of its own.
func (h *AuthHandler) Me(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": identity})
}
