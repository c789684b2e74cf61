// internal/handlers/user_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"i9campaigns/internal/models"
	"i9campaigns/internal/repository"
)

// UserHandler covers the admin-only user management endpoints.
type UserHandler struct {
	repo      repository.UserRepository
	validator *validator.Validate
}

func NewUserHandler(repo repository.UserRepository) *UserHandler {
	return &UserHandler{
		repo:      repo,
		validator: validator.New(),
	}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("hash password:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "create_user_failed", "Failed to create user")
		return
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleViewer
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.repo.Create(r.Context(), user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			writeJSONErrorResponse(w, http.StatusConflict, "duplicate_user", "Email or username already exists")
			return
		}
		log.Println("create user:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "create_user_failed", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		log.Println("get user:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "get_user_failed", "Failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r, 20, 100)

	users, err := h.repo.List(r.Context(), p.limit, p.offset)
	if err != nil {
		log.Println("list users:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_users_failed", "Failed to list users")
		return
	}
	total, err := h.repo.Count(r.Context())
	if err != nil {
		log.Println("count users:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "list_users_failed", "Failed to list users")
		return
	}

	writePaginatedResponse(w, http.StatusOK, users, int64(total), p)
}

// UpdateUser handles PUT /api/v1/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.repo.Update(r.Context(), userID, &req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		log.Println("update user:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
		return
	}

	user, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSONMessage(w, http.StatusOK, "User updated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		log.Println("delete user:", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "delete_user_failed", "Failed to delete user")
		return
	}

	writeJSONMessage(w, http.StatusOK, "User deleted")
}
