package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	commoncrypto "github.com/mkravets/authd/internal/common/crypto"
	"github.com/mkravets/authd/internal/common/logger"
	"github.com/mkravets/authd/internal/observability/metrics"
	userdomain "github.com/mkravets/authd/internal/user/domain"
	userrepo "github.com/mkravets/authd/internal/user/repository"
)

// SessionService orchestrates signup, login, refresh-token exchange, logout
// and current-user lookup over a single users table. The store is the only
// shared state; no in-process locking is needed.
type SessionService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	tokens      *TokenIssuer
	log         *logger.Logger
}

func NewSessionService(
	repo userrepo.Repository,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	tokens *TokenIssuer,
	log *logger.Logger,
) *SessionService {
	return &SessionService{
		repo:        repo,
		hasher:      hasher,
		idGenerator: idGenerator,
		tokens:      tokens,
		log:         log,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User         userdomain.Profile
	AccessToken  string
	RefreshToken string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *SessionService) Signup(ctx context.Context, input SignupInput) (userdomain.Profile, error) {
	email := normalizeEmail(input.Email)

	s.log.WithFields(ctx, logger.Fields{
		"email":  email,
		"action": "signup_attempt",
	}).Info("signup attempt")

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "signup_hash_failed",
		}).Errorf("signup failed: password hash error: %v", err)
		return userdomain.Profile{}, ErrInternal.WithCause(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return userdomain.Profile{}, ErrInternal.WithCause(err)
	}

	user := userdomain.User{
		ID:           userdomain.ID(id),
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "signup_email_exists",
			}).Warn("signup failed: email already registered")
			return userdomain.Profile{}, ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "signup_create_failed",
		}).Errorf("signup failed: %v", err)
		return userdomain.Profile{}, ErrInternal.WithCause(err)
	}

	metrics.UsersRegistered.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"email":   email,
		"user_id": id,
		"action":  "signup_success",
	}).Info("signup success")

	return user.Profile(), nil
}

func (s *SessionService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := normalizeEmail(input.Email)

	s.log.WithFields(ctx, logger.Fields{
		"email":  email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return LoginResult{}, ErrInternal.WithCause(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "login_invalid_password",
		}).Warn("login failed: invalid password")
		return LoginResult{}, ErrInvalidCredentials
	}

	pair, err := s.issueAndStoreTokens(ctx, user.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":   email,
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return LoginResult{}, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"email":   email,
		"user_id": string(user.ID),
		"action":  "login_success",
	}).Info("login success")

	return LoginResult{
		User:         user.Profile(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh exchanges a refresh token for a fresh pair. The token must verify
// against the refresh secret AND match the row's current token byte for
// byte: every earlier token was invalidated by overwrite.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "refresh_attempt",
	}).Info("refresh token attempt")

	if refreshToken == "" {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_verify_failed",
		}).Warn("refresh failed: token did not verify")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "refresh_user_not_found",
			}).Warn("refresh failed: subject gone")
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, ErrInternal.WithCause(err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "refresh_token_superseded",
		}).Warn("refresh failed: token is not the current one")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := s.issueAndStoreTokens(ctx, user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	metrics.RefreshTokensRotated.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(userID),
		"action":  "refresh_success",
	}).Info("refresh success")

	return pair, nil
}

// Logout clears the stored refresh token. Outstanding access tokens stay
// valid until natural expiry.
func (s *SessionService) Logout(ctx context.Context, userID userdomain.ID) error {
	if err := s.repo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "logout_failed",
		}).Errorf("logout failed: %v", err)
		return ErrInternal.WithCause(err)
	}

	metrics.RefreshTokensRevoked.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(userID),
		"action":  "logout_success",
	}).Info("logout success")

	return nil
}

func (s *SessionService) CurrentUser(ctx context.Context, userID userdomain.ID) (userdomain.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "current_user_not_found",
			}).Warn("current user lookup failed: not found")
			return userdomain.Profile{}, ErrUserNotFound
		}
		return userdomain.Profile{}, ErrInternal.WithCause(err)
	}

	return user.Profile(), nil
}

// issueAndStoreTokens issues a pair and overwrites the stored refresh token;
// concurrent logins race and the last writer wins, which is the accepted
// single-token-per-user model.
func (s *SessionService) issueAndStoreTokens(ctx context.Context, userID userdomain.ID) (TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, ErrInternal.WithCause(err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, userID, refreshToken); err != nil {
		return TokenPair{}, ErrInternal.WithCause(err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Emails are compared case-insensitively everywhere: the same normalization
// runs before the signup insert and the login lookup, and the store's unique
// index is on lower(email).
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
