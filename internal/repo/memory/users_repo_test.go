package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/repo/memory"
	"github.com/kamaumbugua/userhub/internal/repo/postgres"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	u1, err := r.Create(ctx, "Jo Doe", "jo@example.com", "hash1", user.RoleUser)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	u2, err := r.Create(ctx, "Amka Ali", "amka@example.com", "hash2", user.RoleAdmin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if u1.ID != 1 || u2.ID != 2 {
		t.Fatalf("got ids %d,%d, want 1,2", u1.ID, u2.ID)
	}
}

func TestCreateDuplicateEmailCaseInsensitive(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	if _, err := r.Create(ctx, "Jo Doe", "jo@example.com", "hash", user.RoleUser); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := r.Create(ctx, "Other", "JO@EXAMPLE.COM", "hash", user.RoleUser)

	if !errors.Is(err, postgres.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestGetByEmailCaseInsensitive(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, err := r.Create(ctx, "Jo Doe", "jo@example.com", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := r.GetByEmail(ctx, "Jo@Example.Com")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}

	if got.ID != created.ID {
		t.Fatalf("got id %d, want %d", got.ID, created.ID)
	}
}

func TestUpdatePartial(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, err := r.Create(ctx, "Jo Doe", "jo@example.com", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Jo Updated"

	updated, err := r.Update(ctx, created.ID, user.UpdateUserRequest{Name: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != name {
		t.Fatalf("got name %q, want %q", updated.Name, name)
	}

	if updated.Email != created.Email {
		t.Fatalf("email changed unexpectedly: %q", updated.Email)
	}

	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed")
	}
}

func TestDeleteReturnsRecordThenNotFound(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, err := r.Create(ctx, "Jo Doe", "jo@example.com", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := r.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if deleted.ID != created.ID {
		t.Fatalf("got id %d, want %d", deleted.ID, created.ID)
	}

	if _, err := r.GetByID(ctx, created.ID); !errors.Is(err, postgres.ErrUserNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if _, err := r.Delete(ctx, created.ID); !errors.Is(err, postgres.ErrUserNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}

	for _, e := range emails {
		if _, err := r.Create(ctx, "Some User", e, "hash", user.RoleUser); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, total, err := r.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if total != 3 {
		t.Fatalf("got total %d, want 3", total)
	}

	if len(page) != 2 || page[0].ID != 2 || page[1].ID != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, total, err = r.List(ctx, 2, 10)
	if err != nil {
		t.Fatalf("list past the end failed: %v", err)
	}

	if len(page) != 0 {
		t.Fatalf("expected an empty page past the end, got %+v", page)
	}

	if total != 3 {
		t.Fatalf("total must survive an out-of-range offset, got %d", total)
	}
}
