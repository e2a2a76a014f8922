package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
)

// seriesTimestampLayout формат меток времени в ответах с рядами.
const seriesTimestampLayout = "2006-01-02T15:04:05.000Z"

var rangePattern = regexp.MustCompile(`^(\d+)([hms])$`)

// ErrInvalidRange возвращается ParseRange для строк не вида 24h, 30m, 15s.
var ErrInvalidRange = errors.New("invalid time range")

// ParseRange разбирает длительность вида <число><h|m|s>.
func ParseRange(s string) (time.Duration, error) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidRange
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidRange
	}
	unit := map[string]time.Duration{"h": time.Hour, "m": time.Minute, "s": time.Second}[m[2]]
	if n > int64(1<<63-1)/int64(unit) {
		return 0, ErrInvalidRange
	}
	return time.Duration(n) * unit, nil
}

// DailyData обрабатывает GET /data/daily?device=&keys=&range=.
func (h *Handler) DailyData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	device, rangeSpec := q.Get("device"), q.Get("range")
	var keyNames []string
	for _, k := range q["keys"] {
		for _, name := range strings.Split(k, ",") {
			if name = strings.TrimSpace(name); name != "" && !contains(keyNames, name) {
				keyNames = append(keyNames, name)
			}
		}
	}
	if device == "" || len(keyNames) == 0 || rangeSpec == "" {
		h.writeMessage(w, http.StatusBadRequest, "device, keys, and range are required.")
		return
	}

	ctx := r.Context()
	if _, err := h.storage.GetDevice(ctx, device); isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "Device not found.")
		return
	} else if err != nil {
		h.serverError(w, r, "Server error while fetching daily data.", err)
		return
	}

	keys := make([]models.Key, 0, len(keyNames))
	for _, name := range keyNames {
		k, err := h.storage.GetKey(ctx, name)
		if isNotFound(err) {
			h.writeMessage(w, http.StatusBadRequest, "One or more keys are invalid.")
			return
		}
		if err != nil {
			h.serverError(w, r, "Server error while fetching daily data.", err)
			return
		}
		keys = append(keys, k)
	}

	window, err := ParseRange(rangeSpec)
	if err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid time range format. Use formats like 24h, 30m, 15s.")
		return
	}
	since := h.now().Add(-window)

	data := make(map[string]models.Series, len(keys))
	for _, k := range keys {
		points, err := h.storage.Points(ctx, device, k.KeyName, since)
		if err != nil {
			h.serverError(w, r, "Server error while fetching daily data.", err)
			return
		}
		values := make([]models.TimedValue, 0, len(points))
		for _, p := range points {
			values = append(values, models.TimedValue{
				Timestamp: p.Timestamp.UTC().Format(seriesTimestampLayout),
				Value:     p.Value,
			})
		}
		data[k.KeyName] = models.Series{Type: k.DataType, Values: values}
	}
	h.writeJSON(w, http.StatusOK, models.DailyResponse{Data: data})
}

// MonthlyAggregate обрабатывает GET /data/month?device=&key=: агрегаты числового ключа за последний месяц.
func (h *Handler) MonthlyAggregate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	device, keyName := q.Get("device"), q.Get("key")
	if device == "" || keyName == "" {
		h.writeMessage(w, http.StatusBadRequest, "device and key are required.")
		return
	}

	ctx := r.Context()
	if _, err := h.storage.GetDevice(ctx, device); isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "Device not found.")
		return
	} else if err != nil {
		h.serverError(w, r, "Server error while fetching aggregated data.", err)
		return
	}
	key, err := h.storage.GetKey(ctx, keyName)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusNotFound, "Key not found.")
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while fetching aggregated data.", err)
		return
	}
	if key.DataType != models.DataTypeFloat {
		h.writeMessage(w, http.StatusBadRequest, "Aggregated data is only available for float-type keys.")
		return
	}

	points, err := h.storage.Points(ctx, device, keyName, h.now().AddDate(0, -1, 0))
	if err != nil {
		h.serverError(w, r, "Server error while fetching aggregated data.", err)
		return
	}
	agg := Aggregate(points)
	if agg == nil {
		h.writeJSON(w, http.StatusOK, models.MonthlyResponse{Message: "No data available for the selected key and device."})
		return
	}
	h.writeJSON(w, http.StatusOK, models.MonthlyResponse{Data: agg})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
