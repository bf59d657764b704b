package identity

import (
	"context"
	"errors"
	"testing"
)

const testSecret = "test-secret-0123456789abcdef"

func newTestLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	p, err := NewLocalProvider(testSecret)
	if err != nil {
		t.Fatalf("NewLocalProvider() error = %v", err)
	}
	return p
}

func TestLocalProviderRegisterLoginVerify(t *testing.T) {
	p := newTestLocalProvider(t)
	ctx := context.Background()

	reg, err := p.Register(ctx, "x@test", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.Identity.SubjectID == "" {
		t.Error("Register() returned empty subject id")
	}
	if reg.Session == nil || reg.Session.AccessToken == "" {
		t.Fatal("Register() returned no session")
	}

	// The registration token verifies back to the same identity.
	ident, err := p.Verify(ctx, reg.Session.AccessToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ident.SubjectID != reg.Identity.SubjectID {
		t.Errorf("Verify() subject = %q, want %q", ident.SubjectID, reg.Identity.SubjectID)
	}
	if ident.Email != "x@test" {
		t.Errorf("Verify() email = %q, want %q", ident.Email, "x@test")
	}

	// Login issues a fresh token for the same subject.
	session, err := p.Login(ctx, "x@test", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	ident2, err := p.Verify(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("Verify() after login error = %v", err)
	}
	if ident2.SubjectID != reg.Identity.SubjectID {
		t.Errorf("login subject = %q, want %q", ident2.SubjectID, reg.Identity.SubjectID)
	}
}

func TestLocalProviderWrongPassword(t *testing.T) {
	p := newTestLocalProvider(t)
	ctx := context.Background()

	if _, err := p.Register(ctx, "x@test", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := p.Login(ctx, "x@test", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLocalProviderUnknownEmail(t *testing.T) {
	p := newTestLocalProvider(t)

	_, err := p.Login(context.Background(), "nobody@test", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLocalProviderDuplicateRegister(t *testing.T) {
	p := newTestLocalProvider(t)
	ctx := context.Background()

	if _, err := p.Register(ctx, "x@test", "secret123"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := p.Register(ctx, "x@test", "other-pass")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register() error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestLocalProviderResetProducesNewSubject(t *testing.T) {
	p := newTestLocalProvider(t)
	ctx := context.Background()

	first, err := p.Register(ctx, "x@test", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p.Reset("x@test")

	second, err := p.Register(ctx, "x@test", "secret123")
	if err != nil {
		t.Fatalf("Register() after Reset error = %v", err)
	}
	if second.Identity.SubjectID == first.Identity.SubjectID {
		t.Error("re-registered account kept the old subject id")
	}
}
