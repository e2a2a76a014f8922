// Package handler реализует REST API сервера разработки поверх repository.Storage.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"go.uber.org/zap"
)

// DefaultTokenTTL время жизни выданного токена.
const DefaultTokenTTL = 24 * time.Hour

type Handler struct {
	storage repository.Storage
	tokens  *TokenStore
	audit   *repository.AuditManager
	key     string
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandler(storage repository.Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
	h.tokens = NewTokenStore(DefaultTokenTTL, func() time.Time { return h.now() })
	return h
}

// SetKey включает проверку подписи запросов и подпись ответов.
func (h *Handler) SetKey(key string) {
	h.key = key
}

// SetAudit подключает аудит принятых пакетов.
func (h *Handler) SetAudit(audit *repository.AuditManager) {
	h.audit = audit
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, `{"message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if h.key != "" {
		w.Header().Set(config.HashHeader, config.ComputeHash(body, h.key))
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, models.MessageResponse{Message: msg})
}

// serverError логирует внутреннюю ошибку и отвечает 500 с сообщением msg.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	h.writeMessage(w, http.StatusInternalServerError, msg)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func isNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

func isExists(err error) bool { return errors.Is(err, repository.ErrAlreadyExists) }

// Ping проверяет доступность хранилища.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.serverError(w, r, "storage unavailable", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Root отвечает текстом о работе сервера.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("System Monitor Backend is running."))
}
