package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mkravets/authd/internal/common/constants"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrJWTSecretTooShort  = errors.New("jwt secret must be at least 32 bytes")
	ErrSecretsNotDistinct = errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
)

type Config struct {
	HTTPPort         string
	DatabaseURL      string
	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RequestTimeout   time.Duration
	LogDir           string
	LogLevel         string
}

func Load() (Config, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}

	jwtRefreshSecret, err := mustEnv("JWT_REFRESH_SECRET")
	if err != nil {
		return Config{}, err
	}

	if err := validateSecrets(jwtSecret, jwtRefreshSecret); err != nil {
		return Config{}, err
	}

	return Config{
		HTTPPort:         getEnv("AUTH_HTTP_PORT", constants.DefaultHTTPPort),
		DatabaseURL:      databaseURL,
		JWTSecret:        jwtSecret,
		JWTRefreshSecret: jwtRefreshSecret,
		AccessTokenTTL:   getDurationEnv("AUTH_ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:  getDurationEnv("AUTH_REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		RequestTimeout:   getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		LogDir:           os.Getenv("LOG_DIR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}, nil
}

// validateSecrets enforces length and key separation between the access and
// refresh signing secrets: compromise of one class must not expose the other.
func validateSecrets(access, refresh string) error {
	if len(access) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: JWT_SECRET is %d bytes", ErrJWTSecretTooShort, len(access))
	}
	if len(refresh) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: JWT_REFRESH_SECRET is %d bytes", ErrJWTSecretTooShort, len(refresh))
	}
	if access == refresh {
		return ErrSecretsNotDistinct
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
