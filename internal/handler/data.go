package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrUnknownDataType = errors.New("unknown data type")
	ErrInvalidValue    = errors.New("invalid value for data type")
)

// ValueError описывает отклонённое значение. Error возвращает текст для клиента.
type ValueError struct {
	Message string
	Err     error
}

func (e *ValueError) Error() string { return e.Message }

func (e *ValueError) Unwrap() error { return e.Err }

// ConvertValue приводит значение к типу ключа.
//
// Для float принимаются числа и строки с числом. Для message любое скалярное
// значение переводится в строку длиной не более models.MaxMessageLength символов.
func ConvertValue(key models.Key, raw any) (any, error) {
	switch key.DataType {
	case models.DataTypeFloat:
		var (
			v   float64
			err error
		)
		switch x := raw.(type) {
		case float64:
			v = x
		case json.Number:
			v, err = x.Float64()
		case string:
			v, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
		default:
			err = ErrInvalidValue
		}
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ValueError{
				Message: fmt.Sprintf("Value for key '%s' must be convertible to a number.", key.KeyName),
				Err:     ErrInvalidValue,
			}
		}
		return v, nil

	case models.DataTypeMessage:
		var s string
		switch x := raw.(type) {
		case string:
			s = x
		case json.Number:
			s = x.String()
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(x)
		default:
			return nil, &ValueError{
				Message: fmt.Sprintf("Value for key '%s' must be a string.", key.KeyName),
				Err:     ErrInvalidValue,
			}
		}
		if utf8.RuneCountInString(s) > models.MaxMessageLength {
			return nil, &ValueError{
				Message: fmt.Sprintf("Message length for key '%s' exceeds %d characters.", key.KeyName, models.MaxMessageLength),
				Err:     ErrInvalidValue,
			}
		}
		return s, nil
	}
	return nil, &ValueError{
		Message: fmt.Sprintf("Unsupported dataType '%s' for key '%s'.", key.DataType, key.KeyName),
		Err:     ErrUnknownDataType,
	}
}

// toPoint проверяет образец и превращает его в точку хранилища.
func (h *Handler) toPoint(key models.Key, s models.Sample) (repository.DataPoint, error) {
	value, err := ConvertValue(key, s.Value)
	if err != nil {
		return repository.DataPoint{}, err
	}
	ts := h.now().UTC()
	if s.Timestamp != "" {
		ts, err = models.ParseTimestamp(s.Timestamp)
		if err != nil {
			return repository.DataPoint{}, &ValueError{
				Message: fmt.Sprintf("Invalid timestamp for key '%s'.", s.Key),
				Err:     ErrInvalidValue,
			}
		}
	}
	return repository.DataPoint{Key: s.Key, Machine: s.Machine, Value: value, Timestamp: ts.UTC()}, nil
}

func writeValueError(h *Handler, w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValueError
	if errors.As(err, &ve) {
		h.writeMessage(w, http.StatusBadRequest, ve.Message)
		return
	}
	h.serverError(w, r, "Server error while uploading data.", err)
}

// UploadValue обрабатывает POST /data с одним значением.
func (h *Handler) UploadValue(w http.ResponseWriter, r *http.Request) {
	var s models.Sample
	if err := decodeJSON(r, &s); err != nil || s.Key == "" || s.Machine == "" || s.Value == nil {
		h.writeMessage(w, http.StatusBadRequest, "Key, machine, and value are required.")
		return
	}
	key, err := h.storage.GetKey(r.Context(), s.Key)
	if isNotFound(err) {
		h.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("DataType with keyName '%s' does not exist.", s.Key))
		return
	}
	if err != nil {
		h.serverError(w, r, "Server error while uploading data.", err)
		return
	}
	p, err := h.toPoint(key, s)
	if err != nil {
		writeValueError(h, w, r, err)
		return
	}
	if err := h.storage.AddPoints(r.Context(), []repository.DataPoint{p}); err != nil {
		h.serverError(w, r, "Server error while uploading data.", err)
		return
	}
	h.writeMessage(w, http.StatusCreated, "Data uploaded successfully.")
}

// UploadBulk обрабатывает POST /data/bulk. Пакет принимается целиком или отклоняется целиком.
func (h *Handler) UploadBulk(w http.ResponseWriter, r *http.Request) {
	var samples []models.Sample
	if err := decodeJSON(r, &samples); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Expected an array of data values.")
		return
	}
	if len(samples) == 0 {
		h.writeMessage(w, http.StatusBadRequest, "No data values provided.")
		return
	}

	keys := make(map[string]models.Key)
	var names, missing []string
	for _, s := range samples {
		if s.Key == "" {
			continue
		}
		if _, seen := keys[s.Key]; seen {
			continue
		}
		k, err := h.storage.GetKey(r.Context(), s.Key)
		switch {
		case isNotFound(err):
			missing = append(missing, s.Key)
		case err != nil:
			h.serverError(w, r, "Server error while uploading data.", err)
			return
		}
		keys[s.Key] = k
		names = append(names, s.Key)
	}
	if len(missing) > 0 {
		h.writeMessage(w, http.StatusBadRequest,
			fmt.Sprintf("DataType(s) for keyName(s) '%s' do not exist.", strings.Join(missing, ", ")))
		return
	}

	points := make([]repository.DataPoint, 0, len(samples))
	for _, s := range samples {
		if s.Key == "" || s.Machine == "" || s.Value == nil {
			h.writeMessage(w, http.StatusBadRequest, "Each data value must include key, machine, and value.")
			return
		}
		p, err := h.toPoint(keys[s.Key], s)
		if err != nil {
			writeValueError(h, w, r, err)
			return
		}
		points = append(points, p)
	}

	if err := h.storage.AddPoints(r.Context(), points); err != nil {
		h.serverError(w, r, "Server error while uploading data.", err)
		return
	}

	if h.audit != nil && h.audit.HasObservers() {
		sess, _ := SessionFrom(r.Context())
		h.audit.Notify(models.AuditEvent{
			Timestamp: h.now().Unix(),
			Username:  sess.Username,
			Machine:   samples[0].Machine,
			Keys:      names,
			Count:     len(points),
			IPAddress: clientIP(r),
		})
	}
	h.logger.Debug("bulk upload accepted",
		zap.String("machine", samples[0].Machine),
		zap.Int("count", len(points)),
	)
	h.writeJSON(w, http.StatusCreated, models.BulkResponse{Message: "Data uploaded successfully.", Count: len(points)})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
