package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/repo/postgres"
)

// UsersRepo is an in-memory directory with the same contract as the
// postgres repo. Used by tests and local development without a DB.
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID: 1,
		users:  make(map[int64]user.User),
	}
}

func (r *UsersRepo) emailTakenLocked(email string, excludeID int64) bool {
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UsersRepo) Create(_ context.Context, name, email, passwordHash string, role user.Role) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(email, 0) {
		return user.User{}, postgres.ErrEmailTaken
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           r.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.nextID++
	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(_ context.Context, limit, offset int) ([]user.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]user.User, 0, len(r.users))

	for _, u := range r.users {
		all = append(all, u)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)

	if offset >= total {
		return []user.User{}, total, nil
	}

	end := offset + limit

	if end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, req user.UpdateUserRequest) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	if req.Email != nil && r.emailTakenLocked(*req.Email, id) {
		return user.User{}, postgres.ErrEmailTaken
	}

	if req.Name != nil {
		u.Name = *req.Name
	}

	if req.Email != nil {
		u.Email = *req.Email
	}

	if req.Role != nil {
		u.Role = *req.Role
	}

	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	delete(r.users, id)

	return u, nil
}
