package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/authd/internal/auth/service"
	commonerrors "github.com/mkravets/authd/internal/common/errors"
	userdomain "github.com/mkravets/authd/internal/user/domain"
	userrepo "github.com/mkravets/authd/internal/user/repository"
)

func TestSessionService_Signup_Success(t *testing.T) {
	svc, repo, _, _, _ := setupSessionService(t)

	var created userdomain.User
	repo.createFunc = func(_ context.Context, user userdomain.User) error {
		created = user
		return nil
	}

	profile, err := svc.Signup(context.Background(), service.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if profile.ID == "" {
		t.Error("expected profile id to be set")
	}
	if profile.Name != "Alice" {
		t.Errorf("expected name Alice, got %s", profile.Name)
	}
	if profile.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %s", profile.Email)
	}

	if created.PasswordHash == "" || created.PasswordHash == "secret-password" {
		t.Error("expected password to be stored hashed")
	}
	if created.RefreshToken != "" {
		t.Error("expected new user to have no refresh token")
	}
}

func TestSessionService_Signup_NormalizesEmail(t *testing.T) {
	svc, repo, _, _, _ := setupSessionService(t)

	var created userdomain.User
	repo.createFunc = func(_ context.Context, user userdomain.User) error {
		created = user
		return nil
	}

	profile, err := svc.Signup(context.Background(), service.SignupInput{
		Name:     "Alice",
		Email:    "  Alice@Example.COM ",
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created.Email != "alice@example.com" {
		t.Errorf("expected stored email to be lowercased, got %q", created.Email)
	}
	if profile.Email != "alice@example.com" {
		t.Errorf("expected returned email to be lowercased, got %q", profile.Email)
	}
}

func TestSessionService_Signup_EmailTaken(t *testing.T) {
	svc, repo, _, _, _ := setupSessionService(t)

	repo.createFunc = func(_ context.Context, _ userdomain.User) error {
		return userrepo.ErrEmailAlreadyExists
	}

	_, err := svc.Signup(context.Background(), service.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "whatever",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		t.Fatalf("expected a domain error, got %T", err)
	}
	if domainErr.HTTPStatus() != 409 {
		t.Errorf("expected status 409, got %d", domainErr.HTTPStatus())
	}
	if domainErr.Message() != "User already exists" {
		t.Errorf("unexpected message %q", domainErr.Message())
	}
}

func TestSessionService_Signup_HashFailureIsInternal(t *testing.T) {
	svc, _, hasher, _, _ := setupSessionService(t)

	hasher.hashFunc = func(_ string) (string, error) {
		return "", errors.New("hash blew up")
	}

	_, err := svc.Signup(context.Background(), service.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		t.Fatalf("expected a domain error, got %T", err)
	}
	if domainErr.Category() != commonerrors.CategoryInternal {
		t.Errorf("expected internal category, got %s", domainErr.Category())
	}
}

func TestSessionService_Signup_StoreFailureIsInternal(t *testing.T) {
	svc, repo, _, _, _ := setupSessionService(t)

	repo.createFunc = func(_ context.Context, _ userdomain.User) error {
		return errors.New("connection reset")
	}

	_, err := svc.Signup(context.Background(), service.SignupInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		t.Fatalf("expected a domain error, got %T", err)
	}
	if domainErr.HTTPStatus() != 500 {
		t.Errorf("expected status 500, got %d", domainErr.HTTPStatus())
	}
}
