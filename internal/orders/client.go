// Package orders places orders and lists them in a normalized shape.
package orders

import (
	"context"
	"net/url"
	"time"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

// Client is the order API client.
type Client struct {
	http *pkghttp.Client

	// Now stamps orders that arrive without a date.
	Now func() time.Time
}

func New(c *pkghttp.Client) *Client {
	return &Client{http: c, Now: time.Now}
}

type checkout struct {
	Email         string `validate:"required"`
	PaymentMethod string `validate:"required"`
}

// CreateFromCart turns email's cart into an order. The body is the
// payment method as a JSON string literal. The cart store is not touched;
// reset it afterwards.
func (c *Client) CreateFromCart(ctx context.Context, email, paymentMethod string) (models.Order, error) {
	const op = "orders.create"
	if err := validate.Check(checkout{Email: email, PaymentMethod: paymentMethod}); err != nil {
		return models.Order{}, api.Validation(op, err)
	}

	resp, err := api.Do(ctx, op,
		c.http.Post("orders/from-cart/"+url.PathEscape(email)).
			Name("orders/from-cart/{email}").
			JSONText(paymentMethod))
	if err != nil {
		return models.Order{}, err
	}
	elems, err := wire.Elements(resp.Raw)
	if err != nil || len(elems) == 0 {
		return models.Order{}, nil
	}
	return normalizeOrder(elems[0], c.Now()), nil
}

// ListAll lists every order.
func (c *Client) ListAll(ctx context.Context) ([]models.Order, error) {
	return c.list(ctx, "orders.list", c.http.Get("orders").Name("orders"))
}

// ListByUser lists email's orders.
func (c *Client) ListByUser(ctx context.Context, email string) ([]models.Order, error) {
	return c.list(ctx, "orders.by_user",
		c.http.Get("orders/"+url.PathEscape(email)).Name("orders/{email}"))
}

func (c *Client) list(ctx context.Context, op string, req *pkghttp.Request) ([]models.Order, error) {
	resp, err := api.Do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	elems, err := wire.Elements(resp.Raw)
	if err != nil {
		return nil, &api.Error{Kind: api.ErrNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	now := c.Now()
	out := make([]models.Order, 0, len(elems))
	for _, el := range elems {
		out = append(out, normalizeOrder(el, now))
	}
	return out, nil
}
