// Package service собирает HTTP-роутер сервера разработки и фоновое сохранение снимков.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/RoGogDBD/sysmon-uploader/internal/handler"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Snapshots описывает сохранение хранилища в памяти в файл.
//
// Если Interval равен 0, снимок пишется после каждого изменяющего запроса.
// Иначе его пишет RunSnapshots.
type Snapshots struct {
	Storage  *repository.MemStorage
	FilePath string
	Interval time.Duration
}

func (s *Snapshots) enabled() bool {
	return s != nil && s.Storage != nil && s.FilePath != ""
}

// NewRouter создает роутер API. Все маршруты бэкенда смонтированы под /api.
// snaps может быть nil, если хранилище не в памяти.
func NewRouter(h *handler.Handler, snaps *Snapshots, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Use(config.GzipRequestMiddleware)
		r.Use(h.VerifyHash)
		if snaps.enabled() && snaps.Interval == 0 {
			r.Use(saveAfterWrite(snaps, logger))
		}

		r.Get("/ping", h.Ping)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/data", h.UploadValue)
			r.Post("/data/bulk", h.UploadBulk)
			r.Get("/data/daily", h.DailyData)
			r.Get("/data/month", h.MonthlyAggregate)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)

				r.Post("/auth/register", h.Register)

				r.Get("/users", h.ListUsers)
				r.Put("/users/password", h.UpdatePassword)
				r.Delete("/users", h.DeleteUser)

				r.Get("/devices", h.ListDevices)
				r.Post("/devices", h.CreateDevice)
				r.Put("/devices/{deviceId}", h.UpdateDevice)
				r.Delete("/devices/{deviceId}", h.DeleteDevice)

				r.Get("/keys", h.ListKeys)
				r.Post("/keys", h.CreateKey)
				r.Get("/keys/{keyName}", h.GetKey)
				r.Put("/keys/{keyName}", h.UpdateKey)
				r.Delete("/keys/{keyName}", h.DeleteKey)
			})
		})
	})

	return r
}

// saveAfterWrite пишет снимок после каждого запроса, кроме GET и HEAD.
func saveAfterWrite(snaps *Snapshots, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				return
			}
			if err := repository.SaveToFile(snaps.Storage, snaps.FilePath); err != nil {
				logger.Error("failed to save snapshot", zap.Error(err))
			}
		})
	}
}

// RunSnapshots сохраняет снимок каждые snaps.Interval до отмены ctx, затем пишет финальный снимок.
// При нулевом интервале пишет только финальный снимок.
func RunSnapshots(ctx context.Context, snaps *Snapshots, logger *zap.Logger) {
	if !snaps.enabled() {
		return
	}
	save := func() {
		if err := repository.SaveToFile(snaps.Storage, snaps.FilePath); err != nil {
			logger.Error("failed to save snapshot", zap.Error(err))
		}
	}
	defer save()

	if snaps.Interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(snaps.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			save()
		}
	}
}
