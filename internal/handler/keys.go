package handler

import (
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-chi/chi/v5"
)

const invalidDataType = `Invalid dataType. Must be "float" or "message".`

func validDataType(t string) bool {
	return t == models.DataTypeFloat || t == models.DataTypeMessage
}

// keysList ответ на список ключей в формате, который отдаёт бэкенд.
type keysList struct {
	DataTypes []models.Key `json:"dataTypes"`
}

func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.storage.ListKeys(r.Context())
	if err != nil {
		h.serverError(w, r, "Server error while fetching DataTypes.", err)
		return
	}
	if keys == nil {
		keys = []models.Key{}
	}
	h.writeJSON(w, http.StatusOK, keysList{DataTypes: keys})
}

func (h *Handler) GetKey(w http.ResponseWriter, r *http.Request) {
	k, err := h.storage.GetKey(r.Context(), chi.URLParam(r, "keyName"))
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "DataType not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while fetching DataType.", err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.KeyResponse{DataType: k})
}

func (h *Handler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var k models.Key
	if err := decodeJSON(r, &k); err != nil || k.KeyName == "" || k.DataType == "" || k.MissingDataAllowance == nil {
		h.writeMessage(w, http.StatusBadRequest, "keyName, dataType, and missingDataAllowance are required.")
		return
	}
	if !validDataType(k.DataType) {
		h.writeMessage(w, http.StatusBadRequest, invalidDataType)
		return
	}
	err := h.storage.CreateKey(r.Context(), k)
	if isExists(err) {
		h.writeMessage(w, http.StatusBadRequest, "DataType with this keyName already exists.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while creating DataType.", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, models.KeyResponse{Message: "DataType created successfully.", DataType: k})
}

func (h *Handler) UpdateKey(w http.ResponseWriter, r *http.Request) {
	var upd models.KeyUpdate
	if err := decodeJSON(r, &upd); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if upd.DataType != nil && !validDataType(*upd.DataType) {
		h.writeMessage(w, http.StatusBadRequest, invalidDataType)
		return
	}
	k, err := h.storage.UpdateKey(r.Context(), chi.URLParam(r, "keyName"), upd)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "DataType not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while updating DataType.", err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.KeyResponse{Message: "DataType updated successfully.", DataType: k})
}

func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	err := h.storage.DeleteKey(r.Context(), chi.URLParam(r, "keyName"))
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "DataType not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while deleting DataType.", err)
		return
	}
	h.writeMessage(w, http.StatusOK, "DataType deleted successfully.")
}
