// internal/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"i9campaigns/internal/config"
	"i9campaigns/internal/middleware"
	"i9campaigns/internal/models"
	"i9campaigns/internal/repository"
)

type AuthHandler struct {
	users     repository.UserRepository
	cfg       *config.Config
	validator *validator.Validate
}

func NewAuthHandler(users repository.UserRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:     users,
		cfg:       cfg,
		validator: validator.New(),
	}
}

func (h *AuthHandler) issueToken(user *models.User) (string, int64, error) {
	expiresIn := h.cfg.JWTExpiresInSeconds
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Duration(expiresIn) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	return signed, expiresIn, err
}

// Login handles POST /api/v1/auth/login. The identifier may be an email or a
// username.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	user, err := h.users.GetByIdentifier(r.Context(), req.Identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
			return
		}
		log.Println("login lookup:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to log in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	signed, expiresIn, err := h.issueToken(user)
	if err != nil {
		log.Println("sign token:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "Failed to log in")
		return
	}

	if err := h.users.TouchLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		log.Println("touch last login:", err)
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   expiresIn,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		log.Println("me lookup:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "me_failed", "Failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Println("change password lookup:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Old password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Println("hash password:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}

	if err := h.users.UpdatePasswordHash(r.Context(), userID, string(hash)); err != nil {
		log.Println("update password hash:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}

	writeJSONMessage(w, http.StatusOK, "Password changed")
}
