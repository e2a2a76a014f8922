package gateway

import (
	"context"
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-resty/resty/v2"
)

// ListUsers возвращает пользователей без паролей.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var out models.UsersResponse
	err := c.read(ctx, func() *resty.Request { return c.request(ctx, token) }, "/users", "list users", &out)
	return out.Users, err
}

// UpdatePassword меняет пароль пользователя.
func (c *Client) UpdatePassword(ctx context.Context, token, username, newPassword string) (string, error) {
	var out models.MessageResponse
	body := models.PasswordUpdate{Username: username, NewPassword: newPassword}
	err := c.write(c.request(ctx, token), http.MethodPut, "/users/password", "update password", body, &out)
	return out.Message, err
}

// DeleteUser удаляет пользователя.
func (c *Client) DeleteUser(ctx context.Context, token, username string) (string, error) {
	var out models.MessageResponse
	err := c.write(c.request(ctx, token), http.MethodDelete, "/users", "delete user", models.UsernameRequest{Username: username}, &out)
	return out.Message, err
}
