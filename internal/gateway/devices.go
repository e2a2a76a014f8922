package gateway

import (
	"context"
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-resty/resty/v2"
)

// ListDevices возвращает зарегистрированные устройства.
func (c *Client) ListDevices(ctx context.Context, token string) ([]models.Device, error) {
	var out models.DevicesResponse
	err := c.read(ctx, func() *resty.Request { return c.request(ctx, token) }, "/devices", "list devices", &out)
	return out.Devices, err
}

// CreateDevice регистрирует устройство.
func (c *Client) CreateDevice(ctx context.Context, token string, d models.Device) (*models.Device, error) {
	var out models.DeviceResponse
	if err := c.write(c.request(ctx, token), http.MethodPost, "/devices", "create device", d, &out); err != nil {
		return nil, err
	}
	return &out.Device, nil
}

// UpdateDevice меняет имя и/или описание устройства.
func (c *Client) UpdateDevice(ctx context.Context, token, deviceID string, upd models.DeviceUpdate) (*models.Device, error) {
	var out models.DeviceResponse
	req := c.request(ctx, token).SetPathParam("deviceId", deviceID)
	if err := c.write(req, http.MethodPut, "/devices/{deviceId}", "update device", upd, &out); err != nil {
		return nil, err
	}
	return &out.Device, nil
}

// DeleteDevice удаляет устройство.
func (c *Client) DeleteDevice(ctx context.Context, token, deviceID string) error {
	req := c.request(ctx, token).SetPathParam("deviceId", deviceID)
	return c.write(req, http.MethodDelete, "/devices/{deviceId}", "delete device", nil, nil)
}
