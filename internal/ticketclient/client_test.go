package ticketclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ms-storefront/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) { return "", errors.New("idp down") }

func newTicketService(t *testing.T, orders map[string]models.Order) (*httptest.Server, *[]string) {
	var cancelled []string
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer m2m" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/api/order/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		order, ok := orders[chi.URLParam(r, "orderId")]
		if !ok {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(order)
	})
	r.Delete("/api/order/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "orderId")
		if id == "broken" {
			http.Error(w, "Could not cancel order", http.StatusInternalServerError)
			return
		}
		cancelled = append(cancelled, id+":"+r.URL.Query().Get("reason"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &cancelled
}

func TestCancelOrder(t *testing.T) {
	srv, cancelled := newTicketService(t, map[string]models.Order{
		"o1":     {OrderID: "o1", SeatIDs: []string{"s1", "s2"}, Status: "completed"},
		"broken": {OrderID: "broken"},
	})
	c := New(srv.URL+"/", srv.Client(), staticToken("m2m"))

	result, err := c.CancelOrder(context.Background(), "o1", "fraud check")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	assert.Equal(t, []string{"s1", "s2"}, result.ReleasedSeats)
	assert.Equal(t, []string{"o1:fraud check"}, *cancelled)

	_, err = c.CancelOrder(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = c.CancelOrder(context.Background(), "broken", "")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "Could not cancel order")
}

func TestGetOrder(t *testing.T) {
	srv, _ := newTicketService(t, map[string]models.Order{
		"o1": {OrderID: "o1", UserID: "u1", Total: 240},
	})

	order, err := New(srv.URL, srv.Client(), staticToken("m2m")).GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, 240.0, order.Total)

	_, err = New(srv.URL, srv.Client(), staticToken("wrong")).GetOrder(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = New(srv.URL, srv.Client(), failingToken{}).GetOrder(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil, nil).CancelOrder(context.Background(), "o1", "")
	assert.ErrorIs(t, err, ErrUpstream)
}
