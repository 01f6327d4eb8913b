// Package users is the admin view of accounts.
package users

import (
	"context"
	"net/url"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
)

type Client struct {
	http *pkghttp.Client
}

func New(c *pkghttp.Client) *Client {
	return &Client{http: c}
}

// List returns every account. Admin only.
func (c *Client) List(ctx context.Context) ([]models.User, error) {
	return api.List[models.User](ctx, "users.list", c.http.Get("Users").Name("Users"))
}

// Delete removes the account of email. Admin only.
func (c *Client) Delete(ctx context.Context, email string) error {
	const op = "users.delete"
	if email == "" {
		return api.Validation(op, validate.Errors{"email": "The email field is required."})
	}
	_, err := api.Do(ctx, op, c.http.Delete("Users/"+url.PathEscape(email)).Name("Users/{email}"))
	return err
}
