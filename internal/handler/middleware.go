package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"go.uber.org/zap"
)

type sessionKey struct{}

// SessionFrom возвращает сессию, сохранённую Authenticate.
func SessionFrom(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

// Authenticate требует заголовок "Authorization: Bearer <token>" с действующим токеном.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			h.writeMessage(w, http.StatusUnauthorized, "Authorization header missing.")
			return
		}
		sess, ok := h.tokens.Lookup(strings.TrimSpace(token))
		if !ok {
			h.writeMessage(w, http.StatusForbidden, "Invalid token.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

// RequireAdmin пропускает только администраторов. Ставится после Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok || !sess.IsAdmin {
			h.writeMessage(w, http.StatusForbidden, "Admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VerifyHash проверяет заголовок HashSHA256 у запросов с телом, если задан ключ.
//
// Подпись считается по распакованному телу, поэтому middleware ставится после
// config.GzipRequestMiddleware.
func (h *Handler) VerifyHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.key == "" || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			h.writeMessage(w, http.StatusBadRequest, "failed to read body")
			return
		}
		if len(body) > 0 && !config.VerifyHash(body, h.key, r.Header.Get(config.HashHeader)) {
			h.logger.Warn("request signature mismatch", zap.String("path", r.URL.Path))
			h.writeMessage(w, http.StatusBadRequest, "invalid hash")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
