package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mkravets/authd/internal/auth/service"
	"github.com/mkravets/authd/internal/common/config"
	commonhttp "github.com/mkravets/authd/internal/common/http"
	"github.com/mkravets/authd/internal/common/jwtverify"
	"github.com/mkravets/authd/internal/common/logger"
	userdomain "github.com/mkravets/authd/internal/user/domain"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type userData struct {
	User userdomain.Profile `json:"user"`
}

type loginData struct {
	User         userdomain.Profile `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

type tokenPairData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Handler struct {
	auth     *service.SessionService
	errors   *commonhttp.ErrorHandler
	validate *validator.Validate
	cfg      config.Config
	log      *logger.Logger
}

func NewHandler(auth *service.SessionService, cfg config.Config, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:     auth,
		errors:   commonhttp.NewErrorHandler(log),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		log:      log,
	}

	guard := jwtverify.Middleware(cfg.JWTSecret, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/refresh", h.refresh)
	mux.Handle("/logout", guard(http.HandlerFunc(h.logout)))
	mux.Handle("/user", guard(http.HandlerFunc(h.currentUser)))
	return mux
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req signupRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("signup failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if msg, ok := h.validateRequest(req); !ok {
		commonhttp.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	profile, err := h.auth.Signup(ctx, service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusCreated, userData{User: profile})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("login failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if msg, ok := h.validateRequest(req); !ok {
		commonhttp.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.auth.Login(ctx, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, loginData{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req refreshRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("refresh failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if msg, ok := h.validateRequest(req); !ok {
		commonhttp.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	pair, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, tokenPairData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "Missing or invalid authorization")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.auth.Logout(ctx, userdomain.ID(claims.UserID)); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteError(w, http.StatusUnauthorized, "Missing or invalid authorization")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	profile, err := h.auth.CurrentUser(ctx, userdomain.ID(claims.UserID))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, userData{User: profile})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
}

// validateRequest runs struct-tag validation and renders the first failure
// as a readable field message.
func (h *Handler) validateRequest(req any) (string, bool) {
	err := h.validate.Struct(req)
	if err == nil {
		return "", true
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fieldErrorMessage(errs[0]), false
	}
	return "invalid request", false
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func jsonFieldName(field string) string {
	switch field {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "RefreshToken":
		return "refreshToken"
	default:
		return field
	}
}
