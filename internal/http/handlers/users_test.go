package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/http/handlers"
	"github.com/kamaumbugua/userhub/internal/http/middlewares"
	"github.com/kamaumbugua/userhub/internal/repo/memory"
)

// The memory repo satisfies handlers.UsersStore directly, so these
// tests run the real ownership logic against a seeded directory.

func seedUsers(t *testing.T) *memory.UsersRepo {
	t.Helper()

	repo := memory.NewUsersRepo()
	ctx := context.Background()

	// id 1: regular user, id 2: another regular user, id 3: admin
	if _, err := repo.Create(ctx, "Jo Doe", "jo@example.com", "hash1", user.RoleUser); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := repo.Create(ctx, "Amka Ali", "amka@example.com", "hash2", user.RoleUser); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := repo.Create(ctx, "Root Admin", "admin@example.com", "hash3", user.RoleAdmin); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	return repo
}

func identityFor(id int64, role user.Role) middlewares.Identity {
	return middlewares.Identity{
		ID:    id,
		Name:  "Caller",
		Email: "caller@example.com",
		Role:  role,
	}
}

// setupUsersRouter mounts the handler behind a middleware that seeds the
// caller identity, standing in for the authenticate stage.
func setupUsersRouter(repo handlers.UsersStore, identity *middlewares.Identity) *gin.Engine {
	r := gin.New()

	h := handlers.NewUsersHandler(repo)

	seed := func(c *gin.Context) {
		if identity != nil {
			middlewares.SetIdentity(c, *identity)
		}
	}

	r.GET("/users", seed, h.ListUsers)
	r.GET("/users/:id", seed, h.GetUserByID)
	r.PUT("/users/:id", seed, h.UpdateUser)
	r.DELETE("/users/:id", seed, h.DeleteUser)

	return r
}

func TestListUsers(t *testing.T) {
	identity := identityFor(1, user.RoleUser)
	r := setupUsersRouter(seedUsers(t), &identity)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), `"count":3`) {
		t.Fatalf("body %s missing total count", w.Body.String())
	}

	if strings.Contains(w.Body.String(), "hash1") {
		t.Fatalf("list leaked a password hash: %s", w.Body.String())
	}
}

func TestGetUserByID(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		wantStatusCode int
	}{
		{name: "ok", path: "/users/2", wantStatusCode: http.StatusOK},
		{name: "non_numeric_id", path: "/users/abc", wantStatusCode: http.StatusBadRequest},
		{name: "signed_id", path: "/users/+2", wantStatusCode: http.StatusBadRequest},
		{name: "zero_id", path: "/users/0", wantStatusCode: http.StatusBadRequest},
		{name: "nonexistent", path: "/users/999999", wantStatusCode: http.StatusNotFound},
	}

	identity := identityFor(1, user.RoleUser)
	r := setupUsersRouter(seedUsers(t), &identity)

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name           string
		callerID       int64
		callerRole     user.Role
		path           string
		body           string
		wantStatusCode int
	}{
		{
			name:       "own_name_update_succeeds",
			callerID:   1,
			callerRole: user.RoleUser,
			path:       "/users/1",
			body:       `{"name":"Jo Renamed"}`,

			wantStatusCode: http.StatusOK,
		},
		{
			name:           "non_admin_updates_other_name",
			callerID:       1,
			callerRole:     user.RoleUser,
			path:           "/users/2",
			body:           `{"name":"Sneaky"}`,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "non_admin_sets_role_on_self",
			callerID:       1,
			callerRole:     user.RoleUser,
			path:           "/users/1",
			body:           `{"role":"admin"}`,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "admin_sets_role",
			callerID:       3,
			callerRole:     user.RoleAdmin,
			path:           "/users/1",
			body:           `{"role":"admin"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "admin_updates_other",
			callerID:       3,
			callerRole:     user.RoleAdmin,
			path:           "/users/2",
			body:           `{"name":"Renamed By Admin"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "empty_payload",
			callerID:       1,
			callerRole:     user.RoleUser,
			path:           "/users/1",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_id",
			callerID:       1,
			callerRole:     user.RoleUser,
			path:           "/users/abc",
			body:           `{"name":"Whatever"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "admin_updates_missing_user",
			callerID:       3,
			callerRole:     user.RoleAdmin,
			path:           "/users/999999",
			body:           `{"name":"Ghost"}`,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_role_value",
			callerID:       3,
			callerRole:     user.RoleAdmin,
			path:           "/users/1",
			body:           `{"role":"root"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			identity := identityFor(tt.callerID, tt.callerRole)
			r := setupUsersRouter(seedUsers(t), &identity)

			w := doJSON(r, http.MethodPut, tt.path, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	identity := identityFor(1, user.RoleUser)
	r := setupUsersRouter(seedUsers(t), &identity)

	// amka@example.com belongs to user 2
	w := doJSON(r, http.MethodPut, "/users/1", `{"email":"AMKA@example.com"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("got status %d, want 409, body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateUserWithoutIdentity(t *testing.T) {
	r := setupUsersRouter(seedUsers(t), nil)

	w := doJSON(r, http.MethodPut, "/users/1", `{"name":"Whoever"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteUser(t *testing.T) {
	tests := []struct {
		name           string
		callerID       int64
		callerRole     user.Role
		path           string
		wantStatusCode int
	}{
		{name: "own_account", callerID: 1, callerRole: user.RoleUser, path: "/users/1", wantStatusCode: http.StatusOK},
		{name: "non_admin_deletes_other", callerID: 1, callerRole: user.RoleUser, path: "/users/2", wantStatusCode: http.StatusForbidden},
		{name: "admin_deletes_any", callerID: 3, callerRole: user.RoleAdmin, path: "/users/1", wantStatusCode: http.StatusOK},
		{name: "bad_id", callerID: 1, callerRole: user.RoleUser, path: "/users/abc", wantStatusCode: http.StatusBadRequest},
		{name: "admin_deletes_missing", callerID: 3, callerRole: user.RoleAdmin, path: "/users/999999", wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			identity := identityFor(tt.callerID, tt.callerRole)
			repo := seedUsers(t)
			r := setupUsersRouter(repo, &identity)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, tt.path, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				// deleted record is echoed back
				if !strings.Contains(w.Body.String(), `"user"`) {
					t.Fatalf("expected deleted user in body, got %s", w.Body.String())
				}

				deleteCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				if _, err := repo.GetByID(deleteCtx, identity.ID); tt.path == "/users/1" && tt.callerID == 1 && err == nil {
					t.Fatalf("record still present after delete")
				}
			}
		})
	}
}
