package paygateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент API платежного шлюза
// Вебхуки шлюза не аутентифицированы, поэтому единственный источник правды —
// его собственный lookup API: GetPayment вызывается перед любым применением статуса
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	log         Logger
}

// NewClient создает новый экземпляр клиента платежного шлюза
func NewClient(baseURL, accessToken string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetPayment получает платеж по ID из шлюза
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	// Идемпотентный ключ на каждый исходящий запрос — требование шлюза
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrPaymentNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if payment.ID == "" || payment.Status == "" {
		return nil, fmt.Errorf("%w: payment without id or status", ErrInvalidResponse)
	}

	return &payment, nil
}
