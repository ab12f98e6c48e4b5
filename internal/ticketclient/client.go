// Package ticketclient calls the external ticket service that owns orders.
package ticketclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-storefront/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUpstream      = errors.New("ticket service error")
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

func New(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Tokens:     tokens,
	}
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	resp, err := c.do(ctx, http.MethodGet, c.orderURL(orderID, ""))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, orderID); err != nil {
		return nil, err
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("%w: decode order %s: %v", ErrUpstream, orderID, err)
	}
	if order.OrderID == "" {
		order.OrderID = orderID
	}
	return &order, nil
}

// CancelOrder asks the ticket service to cancel an order and release its
// seats. The seats reported back are the ones on the order before cancelling.
func (c *Client) CancelOrder(ctx context.Context, orderID, reason string) (*models.CancelOrderResult, error) {
	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodDelete, c.orderURL(orderID, reason))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, orderID); err != nil {
		return nil, err
	}

	return &models.CancelOrderResult{
		OrderID:       orderID,
		Status:        "cancelled",
		ReleasedSeats: order.SeatIDs,
	}, nil
}

func (c *Client) orderURL(orderID, reason string) string {
	u := c.BaseURL + "/api/order/" + url.PathEscape(orderID)
	if reason != "" {
		u += "?" + url.Values{"reason": {reason}}.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: m2m token: %v", ErrUpstream, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstream, method, target, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, orderID string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
