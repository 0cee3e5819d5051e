package auth

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryUserStore(t *testing.T) {
	store := NewMemoryUserStore()
	ctx := context.Background()

	u := &User{Email: "Reporter@Example.com", PasswordHash: "hash", Role: RoleReporter, FacilityID: "fac-1"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}

	// Email is normalized and unique.
	dup := &User{Email: "reporter@example.com", PasswordHash: "hash", Role: RoleMonitor}
	if err := store.CreateUser(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	found, err := store.FindUserByEmail(ctx, "REPORTER@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if found.ID != u.ID || found.Email != "reporter@example.com" {
		t.Fatalf("unexpected user: %+v", found)
	}

	byID, err := store.FindUser(ctx, u.ID)
	if err != nil || byID.Email != "reporter@example.com" {
		t.Fatalf("FindUser: %+v %v", byID, err)
	}

	if _, err := store.FindUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers: %d users, err %v", len(users), err)
	}
}
