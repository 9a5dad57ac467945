package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamaumbugua/userhub/internal/config"
	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/http/middlewares"
	"github.com/kamaumbugua/userhub/internal/repo/postgres"
)

type UsersStore interface {
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Update(ctx context.Context, id int64, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id int64) (user.User, error)
}

type UsersHandler struct {
	repo UsersStore
}

func NewUsersHandler(repo UsersStore) *UsersHandler {
	return &UsersHandler{repo: repo}
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// userIDParam accepts digits only; "+1", "-1" and "1e2" are all bad ids.
func userIDParam(ctx *gin.Context) (int64, bool) {
	raw := ctx.Param("id")

	if raw == "" {
		return 0, false
	}

	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func listParams(ctx *gin.Context) (limit, offset int) {
	limit = defaultListLimit

	if v, err := strconv.Atoi(ctx.DefaultQuery("limit", "")); err == nil && v > 0 {
		limit = v
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if v, err := strconv.Atoi(ctx.DefaultQuery("offset", "")); err == nil && v > 0 {
		offset = v
	}

	return limit, offset
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	limit, offset := listParams(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.repo.List(cctx, limit, offset)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "user list failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": users,
		"count": total,
	})
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := userIDParam(ctx)

	if !ok {
		RespondBadRequest(ctx, "User id must be a positive integer", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "user fetch failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// canTouch is the ownership rule: a caller may act on their own record,
// an admin on any record.
func canTouch(identity middlewares.Identity, targetID int64) bool {
	return identity.ID == targetID || identity.IsAdmin()
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)

	if !ok {
		RespondBadRequest(ctx, "User id must be a positive integer", nil)
		return
	}

	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "At least one of name, email or role is required", nil)
		return
	}

	if !canTouch(identity, id) {
		RespondForbidden(ctx, "You can only update your own account")
		return
	}

	// role changes are an admin capability, even on one's own record
	if req.Role != nil && !identity.IsAdmin() {
		RespondForbidden(ctx, "Only admins can change roles")
		return
	}

	if req.Name != nil {
		name := user.NormalizeName(*req.Name)

		if !user.ValidName(name) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{
				{Field: "name", Rule: "min", Param: "2", Message: "must be at least 2"},
			}})
			return
		}

		req.Name = &name
	}

	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		req.Email = &email
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "user update failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)

	if !ok {
		RespondBadRequest(ctx, "User id must be a positive integer", nil)
		return
	}

	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	if !canTouch(identity, id) {
		RespondForbidden(ctx, "You can only delete your own account")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "user delete failed", "err", err, "user_id", id)
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
