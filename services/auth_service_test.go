package services

import (
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret", false)

	player, err := auth.register("Alice@Example.com", "alice", "sekret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if player.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", player.Email)
	}
	if player.PasswordHash == "sekret1" {
		t.Fatal("password stored in the clear")
	}

	// Login works with either the email or the username.
	if _, err := auth.authenticate("alice@example.com", "sekret1"); err != nil {
		t.Fatalf("authenticate by email: %v", err)
	}
	if _, err := auth.authenticate("alice", "sekret1"); err != nil {
		t.Fatalf("authenticate by username: %v", err)
	}

	if _, err := auth.authenticate("alice", "wrong"); !errors.Is(err, errBadPassword) {
		t.Fatalf("wrong password: got %v, want errBadPassword", err)
	}
	if _, err := auth.authenticate("nobody", "sekret1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown account: got %v, want ErrNotFound", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret", false)

	cases := []struct {
		name                      string
		email, username, password string
	}{
		{"bad email", "not-an-email", "alice", "sekret1"},
		{"empty username", "a@b.com", "  ", "sekret1"},
		{"short password", "a@b.com", "alice", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.register(tc.email, tc.username, tc.password)
			var ie *authInputError
			if !errors.As(err, &ie) {
				t.Fatalf("got %v, want *authInputError", err)
			}
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret", false)

	if _, err := auth.register("alice@example.com", "alice", "sekret1"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	if _, err := auth.register("alice@example.com", "other", "sekret1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}
	if _, err := auth.register("other@example.com", "alice", "sekret1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username: got %v, want ErrConflict", err)
	}
}
