// Package gateway клиент REST API бэкенда телеметрии.
//
// Один resty.Client создаётся на процесс и используется всеми операциями.
// Вход и отправка батчей не повторяются; идемпотентные чтения повторяются
// при временных сетевых ошибках через config.RetryWithBackoff.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Options параметры клиента.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// CAFile дополнительный PEM-набор доверенных корней.
	CAFile string
	// Key ключ подписи тел запросов (заголовок HashSHA256). Пустой отключает подпись.
	Key    string
	Gzip   bool
	Logger *zap.Logger
}

// Client клиент бэкенда.
type Client struct {
	http   *resty.Client
	key    string
	gzip   bool
	logger *zap.Logger
}

// New создаёт клиента. Проверка TLS-сертификатов всегда включена.
func New(opts Options) (*Client, error) {
	tlsCfg, err := config.TLSConfig(opts.CAFile)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTLSClientConfig(tlsCfg).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	return &Client{http: rc, key: opts.Key, gzip: opts.Gzip, logger: logger}, nil
}

// BaseURL возвращает адрес бэкенда.
func (c *Client) BaseURL() string { return c.http.BaseURL }

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetError(&models.MessageResponse{})
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// setJSONBody сериализует v, при необходимости сжимает и подписывает тело.
//
// Подпись считается по несжатому JSON.
func (c *Client) setJSONBody(req *resty.Request, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if c.key != "" {
		req.SetHeader(config.HashHeader, config.ComputeHash(body, c.key))
	}
	if c.gzip {
		body, err = config.GzipCompress(body)
		if err != nil {
			return fmt.Errorf("compress request: %w", err)
		}
		req.SetHeader("Content-Encoding", "gzip")
	}
	req.SetHeader("Content-Type", "application/json").SetBody(body)
	return nil
}

// errorMessage извлекает поле message из ответа с ошибкой.
func errorMessage(resp *resty.Response) string {
	if m, ok := resp.Error().(*models.MessageResponse); ok && m.Message != "" {
		return m.Message
	}
	var m models.MessageResponse
	if err := json.Unmarshal(resp.Body(), &m); err == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(resp.Body()))
}

// call выполняет запрос административной операции op и декодирует успешный ответ в out.
func (c *Client) call(req *resty.Request, method, path, op string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &APIError{Op: op, Status: resp.StatusCode(), Message: errorMessage(resp)}
	}
	if err := decode(resp, out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode(), Err: err}
	}
	return nil
}

// decode разбирает JSON-тело успешного ответа независимо от Content-Type.
func decode(resp *resty.Response, out any) error {
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// read выполняет идемпотентный запрос с повторами при временных ошибках.
func (c *Client) read(ctx context.Context, build func() *resty.Request, path, op string, out any) error {
	return config.RetryWithBackoff(ctx, func() error {
		return c.call(build(), resty.MethodGet, path, op, out)
	})
}

// write выполняет неидемпотентный запрос с JSON-телом (или без тела, если body nil).
func (c *Client) write(req *resty.Request, method, path, op string, body, out any) error {
	if body != nil {
		if err := c.setJSONBody(req, body); err != nil {
			return &APIError{Op: op, Err: err}
		}
	}
	return c.call(req, method, path, op, out)
}
