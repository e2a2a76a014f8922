package handler

import (
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"go.uber.org/zap"
)

// Login обрабатывает POST /auth/login и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	user, err := repository.Authenticate(r.Context(), h.storage, creds.Username, creds.Password)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}

	token, err := h.tokens.Issue(user.Username, user.IsAdmin)
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	h.logger.Info("user logged in", zap.String("username", user.Username))
	h.writeJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

// Register обрабатывает POST /auth/register. Создавать администраторов через API нельзя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.NewUser
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		h.writeMessage(w, http.StatusBadRequest, "Username and password are required.")
		return
	}
	if req.IsAdmin {
		h.writeMessage(w, http.StatusBadRequest, "Cannot create admin user.")
		return
	}

	hash, err := repository.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	err = h.storage.CreateUser(r.Context(), repository.UserRecord{Username: req.Username, PasswordHash: hash})
	if isExists(err) {
		h.writeMessage(w, http.StatusBadRequest, "Username already exists.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	h.writeMessage(w, http.StatusCreated, "User registered successfully.")
}
