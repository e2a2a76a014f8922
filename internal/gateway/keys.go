package gateway

import (
	"context"
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-resty/resty/v2"
)

// ListKeys возвращает все ключи.
func (c *Client) ListKeys(ctx context.Context, token string) ([]models.Key, error) {
	var out models.KeysResponse
	err := c.read(ctx, func() *resty.Request { return c.request(ctx, token) }, "/keys", "list keys", &out)
	return out.All(), err
}

// GetKey возвращает ключ по имени.
func (c *Client) GetKey(ctx context.Context, token, name string) (*models.Key, error) {
	var out models.KeyResponse
	err := c.read(ctx, func() *resty.Request {
		return c.request(ctx, token).SetPathParam("keyName", name)
	}, "/keys/{keyName}", "get key", &out)
	if err != nil {
		return nil, err
	}
	return &out.DataType, nil
}

// CreateKey создаёт ключ.
func (c *Client) CreateKey(ctx context.Context, token string, k models.Key) (*models.Key, error) {
	var out models.KeyResponse
	if err := c.write(c.request(ctx, token), http.MethodPost, "/keys", "create key", k, &out); err != nil {
		return nil, err
	}
	return &out.DataType, nil
}

// UpdateKey частично обновляет ключ.
func (c *Client) UpdateKey(ctx context.Context, token, name string, upd models.KeyUpdate) (*models.Key, error) {
	var out models.KeyResponse
	req := c.request(ctx, token).SetPathParam("keyName", name)
	if err := c.write(req, http.MethodPut, "/keys/{keyName}", "update key", upd, &out); err != nil {
		return nil, err
	}
	return &out.DataType, nil
}

// DeleteKey удаляет ключ.
func (c *Client) DeleteKey(ctx context.Context, token, name string) error {
	req := c.request(ctx, token).SetPathParam("keyName", name)
	return c.write(req, http.MethodDelete, "/keys/{keyName}", "delete key", nil, nil)
}
