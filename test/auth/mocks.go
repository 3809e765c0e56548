package auth

import (
	"context"
	"testing"
	"time"

	"github.com/mkravets/authd/internal/auth/service"
	"github.com/mkravets/authd/internal/common/clock"
	"github.com/mkravets/authd/internal/common/logger"
	userdomain "github.com/mkravets/authd/internal/user/domain"
	userrepo "github.com/mkravets/authd/internal/user/repository"
)

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcdef"
)

type mockUserRepo struct {
	createFunc             func(ctx context.Context, user userdomain.User) error
	findByEmailFunc        func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFunc           func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	updateRefreshTokenFunc func(ctx context.Context, id userdomain.ID, token string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, id userdomain.ID, token string) error {
	if m.updateRefreshTokenFunc != nil {
		return m.updateRefreshTokenFunc(ctx, id, token)
	}
	return nil
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash string, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash string, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "user-123", nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return log
}

func newTestIssuer(clk clock.Clock) *service.TokenIssuer {
	return service.NewTokenIssuer(
		testAccessSecret,
		testRefreshSecret,
		15*time.Minute,
		7*24*time.Hour,
		clk,
	)
}

func setupSessionService(t *testing.T) (*service.SessionService, *mockUserRepo, *mockHasher, *service.TokenIssuer, *clock.MockClock) {
	t.Helper()

	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	issuer := newTestIssuer(clk)
	svc := service.NewSessionService(repo, hasher, &mockIDGenerator{}, issuer, testLogger(t))

	return svc, repo, hasher, issuer, clk
}
