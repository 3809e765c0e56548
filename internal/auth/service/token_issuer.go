package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkravets/authd/internal/common/clock"
	"github.com/mkravets/authd/internal/observability/metrics"
	userdomain "github.com/mkravets/authd/internal/user/domain"
)

// TokenIssuer signs access and refresh tokens with distinct secrets. A
// token only ever verifies against the secret of its own class.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	clock         clock.Clock
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(
	accessSecret string,
	refreshSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	clk clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		clock:         clk,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (ti *TokenIssuer) IssueAccessToken(userID userdomain.ID) (string, error) {
	token, err := ti.issue(userID, ti.accessSecret, ti.accessTTL)
	if err != nil {
		return "", err
	}
	metrics.AccessTokensIssued.Inc()
	return token, nil
}

func (ti *TokenIssuer) IssueRefreshToken(userID userdomain.ID) (string, error) {
	token, err := ti.issue(userID, ti.refreshSecret, ti.refreshTTL)
	if err != nil {
		return "", err
	}
	metrics.RefreshTokensIssued.Inc()
	return token, nil
}

// VerifyAccessToken returns the subject id, or ErrInvalidToken for any
// failure: bad signature, wrong method, malformed payload or elapsed expiry.
func (ti *TokenIssuer) VerifyAccessToken(tokenString string) (userdomain.ID, error) {
	return ti.verify(tokenString, ti.accessSecret)
}

func (ti *TokenIssuer) VerifyRefreshToken(tokenString string) (userdomain.ID, error) {
	return ti.verify(tokenString, ti.refreshSecret)
}

func (ti *TokenIssuer) issue(userID userdomain.ID, secret []byte, ttl time.Duration) (string, error) {
	now := ti.clock.Now()
	claims := jwt.MapClaims{
		"sub": string(userID),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (ti *TokenIssuer) verify(tokenString string, secret []byte) (userdomain.ID, error) {
	parsed, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		},
		jwt.WithTimeFunc(ti.clock.Now),
	)
	if err != nil || !parsed.Valid {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		metrics.TokenVerificationsFailed.Inc()
		return "", ErrInvalidToken
	}

	return userdomain.ID(sub), nil
}
