package gateway

import (
	"context"
	"net/http"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"go.uber.org/zap"
)

// Login выполняет вход и возвращает bearer-токен.
//
// Любой статус кроме 200 или пустой токен дают *AuthError. Повторов нет.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var out models.TokenResponse
	req := c.request(ctx, "")
	if err := c.setJSONBody(req, creds); err != nil {
		return "", &AuthError{Err: err}
	}

	resp, err := req.Post("/auth/login")
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &AuthError{Status: resp.StatusCode(), Message: errorMessage(resp)}
	}
	if err := decode(resp, &out); err != nil {
		return "", &AuthError{Status: resp.StatusCode(), Err: err}
	}
	if out.Token == "" {
		return "", &AuthError{Status: resp.StatusCode(), Message: "no token received"}
	}
	c.logger.Info("login successful", zap.String("username", creds.Username))
	return out.Token, nil
}

// RegisterUser создаёт пользователя (требуются права администратора).
func (c *Client) RegisterUser(ctx context.Context, token string, user models.NewUser) (string, error) {
	var out models.MessageResponse
	err := c.write(c.request(ctx, token), http.MethodPost, "/auth/register", "register user", user, &out)
	return out.Message, err
}
