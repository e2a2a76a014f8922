package gateway

import (
	"fmt"
	"net/http"
)

// AuthError неудачный вход: транспортная ошибка, статус не 200 или пустой токен.
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("login failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("login failed (%d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("login failed (%d)", e.Status)
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// SubmissionError неудачная отправка батча. Status равен 0 для транспортных ошибок.
type SubmissionError struct {
	Status  int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit batch: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("submit batch: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("submit batch: status %d", e.Status)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// APIError неудачный административный запрос.
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error { return e.Err }

// NotFound сообщает, что сервер ответил 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }
