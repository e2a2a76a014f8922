package handler

import (
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.storage.ListDevices(r.Context())
	if err != nil {
		h.serverError(w, r, "Server error while fetching devices.", err)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	h.writeJSON(w, http.StatusOK, models.DevicesResponse{Devices: devices})
}

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var d models.Device
	if err := decodeJSON(r, &d); err != nil || d.DeviceID == "" || d.Name == "" {
		h.writeMessage(w, http.StatusBadRequest, "deviceId and name are required.")
		return
	}
	err := h.storage.CreateDevice(r.Context(), d)
	if isExists(err) {
		h.writeMessage(w, http.StatusBadRequest, "Device with this deviceId already exists.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while creating device.", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, models.DeviceResponse{Message: "Device created successfully.", Device: d})
}

func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var upd models.DeviceUpdate
	if err := decodeJSON(r, &upd); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	d, err := h.storage.UpdateDevice(r.Context(), chi.URLParam(r, "deviceId"), upd)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "Device not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while updating device.", err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.DeviceResponse{Message: "Device updated successfully.", Device: d})
}

func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	err := h.storage.DeleteDevice(r.Context(), chi.URLParam(r, "deviceId"))
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "Device not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while deleting device.", err)
		return
	}
	h.writeMessage(w, http.StatusOK, "Device deleted successfully.")
}
