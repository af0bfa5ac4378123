// Package client talks to the inventory service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stockroom/internal/checkout"
	"stockroom/internal/models"
	"stockroom/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config holds the inventory service location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is an inventory service client. It satisfies checkout.Backend.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	log     *zap.Logger
}

// New creates a Client. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		log:     logging.OrNop(logger),
	}
}

// APIError is a non-2xx reply of the inventory service.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// BackendMessage is the text the service sent back, if any.
func (e *APIError) BackendMessage() string {
	return e.Message
}

// reply covers the message keys the service and older deployments use.
type reply struct {
	Mensagem string `json:"mensagem"`
	Erro     string `json:"erro"`
	Message  string `json:"message"`
	Error    string `json:"error"`
	Token    string `json:"token"`
}

func (r reply) text() string {
	for _, s := range []string{r.Mensagem, r.Erro, r.Message, r.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// List returns every product.
func (c *Client) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, fiber.MethodGet, "/estoque", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get returns one product.
func (c *Client) Get(ctx context.Context, code string) (models.Product, error) {
	var product models.Product
	if err := c.do(ctx, fiber.MethodGet, "/estoque/"+url.PathEscape(models.NormalizeCode(code)), nil, &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// Upsert creates or replaces a product. The code is upper-cased before sending.
func (c *Client) Upsert(ctx context.Context, product models.Product) (string, error) {
	return c.message(ctx, fiber.MethodPost, "/estoque/cadastro", product.Normalize())
}

// Update edits an existing product.
func (c *Client) Update(ctx context.Context, product models.Product) (string, error) {
	return c.message(ctx, fiber.MethodPut, "/estoque/editar", product.Normalize())
}

// Sell registers the sale of quantity units. A service without the sell
// route yields an error matching checkout.ErrSellUnsupported.
func (c *Client) Sell(ctx context.Context, code string, quantity int) (string, error) {
	body := models.SellRequest{Code: models.NormalizeCode(code), Quantity: &quantity}
	message, err := c.message(ctx, fiber.MethodPost, "/estoque/venda", body)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message == "" &&
		(apiErr.Status == fiber.StatusNotFound || apiErr.Status == fiber.StatusMethodNotAllowed) {
		return "", fmt.Errorf("%w: %w", checkout.ErrSellUnsupported, err)
	}
	return message, err
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, code string) (string, error) {
	return c.message(ctx, fiber.MethodDelete, "/estoque/excluir", models.DeleteRequest{Code: models.NormalizeCode(code)})
}

// Sales returns the sales ledger.
func (c *Client) Sales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := c.do(ctx, fiber.MethodGet, "/estoque/vendas", nil, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an operator account.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.message(ctx, fiber.MethodPost, "/auth/register", credentials{username, password})
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var r reply
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", credentials{username, password}, &r); err != nil {
		return "", err
	}
	if r.Token == "" {
		return "", fmt.Errorf("login: no token in reply")
	}
	c.token = r.Token
	return r.Token, nil
}

func (c *Client) message(ctx context.Context, method, path string, body interface{}) (string, error) {
	var r reply
	if err := c.do(ctx, method, path, body, &r); err != nil {
		return "", err
	}
	return r.text(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	timeout, err := c.requestTimeout(ctx)
	if err != nil {
		return err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	agent.Timeout(timeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if body != nil {
		agent.JSON(body)
	}

	start := time.Now()
	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		c.log.Warn("inventory_request_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Errors("errors", errs),
		)
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	c.log.Debug("inventory_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	if status < 200 || status > 299 {
		var r reply
		// Non-JSON bodies leave the message empty.
		_ = json.Unmarshal(respBody, &r)
		return &APIError{Method: method, Path: path, Status: status, Message: r.text()}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// requestTimeout is the configured timeout, shortened by the ctx deadline.
func (c *Client) requestTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return 0, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}
	return timeout, nil
}
