package users_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/users"
	userdb "ms-booking/internal/users/db"
	"ms-booking/internal/utils"
)

// maxAvatarSize caps profile picture uploads at 5MB.
const maxAvatarSize = 5 << 20

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func NewHandler(userService *users.UserService, log *logger.Logger) *Handler {
	return &Handler{
		UserService: userService,
		Logger:      log,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Register: email=%s", req.Email))

	resp, err := h.UserService.Register(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		switch {
		case errors.Is(err, users.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, users.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("registered", resp))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.UserService.Login(req)
	if err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("Login failed for %s", req.Email))
		if errors.Is(err, users.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("logged in", resp))
}

// Me returns the caller's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetUser(auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("profile", user))
}

// UpdateMe changes the caller's display name.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.UserService.UpdateProfile(auth.UserID(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateMe: %v", err))
		switch {
		case errors.Is(err, users.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, userdb.ErrNotFound):
			http.Error(w, "User not found", http.StatusNotFound)
		default:
			http.Error(w, "Could not update profile", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("profile updated", user))
}

// UploadAvatar accepts a multipart avatar image for the caller's account.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("UploadAvatar: user=%s file=%s", userID, header.Filename))

	url, err := h.UserService.UploadAvatar(r.Context(), userID, header.Filename, data)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadAvatar: %v", err))
		if errors.Is(err, users.ErrMissingAvatar) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not store avatar", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("avatar uploaded", map[string]string{"avatar_url": url}))
}

// ListUsers returns every account. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	all, err := h.UserService.ListUsers()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		http.Error(w, "Could not load users", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("users", all))
}

// DeleteUser removes an account. Admin only.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	h.Logger.Info("API", fmt.Sprintf("DeleteUser: userId=%s", userID))

	if err := h.UserService.DeleteUser(userID); err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteUser: %v", err))
		http.Error(w, "Could not delete user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
