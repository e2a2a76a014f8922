package gateway

import (
	"context"
	"net/http"
	"net/url"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/go-resty/resty/v2"
)

// SubmitBatch отправляет батч одним запросом POST /data/bulk.
//
// Успех любой статус 2xx (сервер отвечает 201). Транспортные ошибки и прочие
// статусы возвращаются как *SubmissionError. Повторов нет: решение о продолжении
// принимает вызывающий по своему счётчику неудач.
func (c *Client) SubmitBatch(ctx context.Context, token string, samples []models.Sample) error {
	req := c.request(ctx, token)
	if err := c.setJSONBody(req, samples); err != nil {
		return &SubmissionError{Err: err}
	}
	resp, err := req.Post("/data/bulk")
	if err != nil {
		return &SubmissionError{Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &SubmissionError{Status: resp.StatusCode(), Message: errorMessage(resp)}
	}
	return nil
}

// UploadValue отправляет одно значение через POST /data.
func (c *Client) UploadValue(ctx context.Context, token string, sample models.Sample) (string, error) {
	var out models.MessageResponse
	err := c.write(c.request(ctx, token), http.MethodPost, "/data", "upload value", sample, &out)
	return out.Message, err
}

// DailyData запрашивает значения ключей устройства за период rangeSpec ("24h", "30m", "15s").
func (c *Client) DailyData(ctx context.Context, token, device, rangeSpec string, keys []string) (map[string]models.Series, error) {
	q := url.Values{}
	q.Set("device", device)
	q.Set("range", rangeSpec)
	for _, k := range keys {
		q.Add("keys", k)
	}

	var out models.DailyResponse
	err := c.read(ctx, func() *resty.Request {
		return c.request(ctx, token).SetQueryParamsFromValues(q)
	}, "/data/daily", "daily data", &out)
	return out.Data, err
}

// MonthlyAggregate запрашивает агрегаты числового ключа устройства за последний месяц.
//
// Если данных нет, возвращается nil и сообщение сервера.
func (c *Client) MonthlyAggregate(ctx context.Context, token, device, key string) (*models.Aggregate, string, error) {
	var out models.MonthlyResponse
	err := c.read(ctx, func() *resty.Request {
		return c.request(ctx, token).SetQueryParams(map[string]string{"device": device, "key": key})
	}, "/data/month", "monthly aggregate", &out)
	return out.Data, out.Message, err
}
