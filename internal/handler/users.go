package handler

import (
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	records, err := h.storage.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	users := make([]models.User, 0, len(records))
	for _, u := range records {
		users = append(users, models.User{Username: u.Username, IsAdmin: u.IsAdmin})
	}
	h.writeJSON(w, http.StatusOK, models.UsersResponse{Users: users})
}

// UpdatePassword обрабатывает PUT /users/password. Выданные пользователю токены отзываются.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordUpdate
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.NewPassword == "" {
		h.writeMessage(w, http.StatusBadRequest, "Username and newPassword are required.")
		return
	}
	hash, err := repository.HashPassword(req.NewPassword)
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	err = h.storage.SetPasswordHash(r.Context(), req.Username, hash)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	h.tokens.Revoke(req.Username)
	h.writeMessage(w, http.StatusOK, "Password updated successfully.")
}

// DeleteUser обрабатывает DELETE /users с именем пользователя в теле.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req models.UsernameRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" {
		h.writeMessage(w, http.StatusBadRequest, "Username is required.")
		return
	}
	err := h.storage.DeleteUser(r.Context(), req.Username)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error.", err)
		return
	}
	h.tokens.Revoke(req.Username)
	h.writeMessage(w, http.StatusOK, "User deleted successfully.")
}
