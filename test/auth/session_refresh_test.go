package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkravets/authd/internal/auth/service"
	userdomain "github.com/mkravets/authd/internal/user/domain"
	userrepo "github.com/mkravets/authd/internal/user/repository"
)

func TestSessionService_Refresh_RotatesPair(t *testing.T) {
	svc, repo, _, issuer, clk := setupSessionService(t)

	current, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	user := storedUser()
	user.RefreshToken = current
	repo.findByIDFunc = func(_ context.Context, id userdomain.ID) (userdomain.User, error) {
		if id != "user-123" {
			t.Errorf("expected lookup of user-123, got %s", id)
		}
		return user, nil
	}

	var savedToken string
	repo.updateRefreshTokenFunc = func(_ context.Context, _ userdomain.ID, token string) error {
		savedToken = token
		return nil
	}

	clk.Advance(time.Minute)

	pair, err := svc.Refresh(context.Background(), current)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}
	if pair.RefreshToken == current {
		t.Error("expected the refresh token to rotate")
	}
	if savedToken != pair.RefreshToken {
		t.Error("expected the new refresh token to overwrite the stored one")
	}

	sub, err := issuer.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("new access token did not verify: %v", err)
	}
	if sub != "user-123" {
		t.Errorf("expected subject user-123, got %s", sub)
	}
}

func TestSessionService_Refresh_RejectsSupersededToken(t *testing.T) {
	svc, repo, _, issuer, clk := setupSessionService(t)

	old, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	clk.Advance(time.Minute)

	current, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	user := storedUser()
	user.RefreshToken = current
	repo.findByIDFunc = func(_ context.Context, _ userdomain.ID) (userdomain.User, error) {
		return user, nil
	}

	_, err = svc.Refresh(context.Background(), old)
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_Refresh_RejectsExpiredToken(t *testing.T) {
	svc, repo, _, issuer, clk := setupSessionService(t)

	token, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	user := storedUser()
	user.RefreshToken = token
	repo.findByIDFunc = func(_ context.Context, _ userdomain.ID) (userdomain.User, error) {
		return user, nil
	}

	clk.Advance(8 * 24 * time.Hour)

	_, err = svc.Refresh(context.Background(), token)
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_Refresh_RejectsAccessToken(t *testing.T) {
	svc, repo, _, issuer, _ := setupSessionService(t)

	// Key separation: an access token must never pass the refresh check.
	accessToken, err := issuer.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	repo.findByIDFunc = func(_ context.Context, _ userdomain.ID) (userdomain.User, error) {
		t.Fatal("store must not be consulted for a token that fails verification")
		return userdomain.User{}, nil
	}

	_, err = svc.Refresh(context.Background(), accessToken)
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_Refresh_RejectsEmptyToken(t *testing.T) {
	svc, _, _, _, _ := setupSessionService(t)

	_, err := svc.Refresh(context.Background(), "")
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_Refresh_SubjectDeleted(t *testing.T) {
	svc, repo, _, issuer, _ := setupSessionService(t)

	token, err := issuer.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	repo.findByIDFunc = func(_ context.Context, _ userdomain.ID) (userdomain.User, error) {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}

	_, err = svc.Refresh(context.Background(), token)
	if !errors.Is(err, service.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSessionService_Logout_ClearsStoredToken(t *testing.T) {
	svc, repo, _, _, _ := setupSessionService(t)

	var clearedFor userdomain.ID
	var clearedTo string
	called := false
	repo.updateRefreshTokenFunc = func(_ context.Context, id userdomain.ID, token string) error {
		called = true
		clearedFor = id
		clearedTo = token
		return nil
	}

	if err := svc.Logout(context.Background(), "user-123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected the stored refresh token to be updated")
	}
	if clearedFor != "user-123" || clearedTo != "" {
		t.Errorf("expected token cleared for user-123, got id=%s token=%q", clearedFor, clearedTo)
	}
}
