package service

import (
	"net/http"

	commonerrors "github.com/mkravets/authd/internal/common/errors"
)

var (
	// ErrInvalidCredentials covers both unknown-email and wrong-password so
	// responses cannot be used to enumerate registered emails.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid email or password",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"User already exists",
	)

	ErrUserNotFound = commonerrors.NewDomainError(
		"USER_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"User not found",
	)

	ErrInvalidToken = commonerrors.NewDomainError(
		"INVALID_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid token",
	)

	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Invalid refresh token",
	)

	ErrInternal = commonerrors.NewDomainError(
		"INTERNAL_ERROR",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
