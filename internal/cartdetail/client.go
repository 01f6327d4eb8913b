// Package cartdetail mutates individual cart lines on the backend.
//
// Every successful add or remove re-reads the record and broadcasts its
// new stock, so any view listing that record can patch itself without a
// reload. The caller owns its local cart state and reverts it on error.
package cartdetail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/collection"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
	"github.com/shashiranjanraj/recordshop/pkg/workerpool"
)

// ErrInvalidStock is wrapped when the stock endpoint answers without a
// usable non-negative newStock.
var ErrInvalidStock = errors.New("invalid stock value")

// StockNotifier receives the stock observed after each mutation.
type StockNotifier interface {
	Notify(recordID, newStock int)
}

// Identity is the signed-in user as far as this client cares.
type Identity interface {
	Email() string
	IsAdmin() bool
}

// Client is the cart detail API client.
type Client struct {
	http  *pkghttp.Client
	stock StockNotifier
	who   Identity
	pool  *workerpool.Pool
}

// New returns a Client. who may be nil, in which case no ownership check
// is applied. pool may be nil, in which case Enrich runs sequentially.
func New(c *pkghttp.Client, stock StockNotifier, who Identity, pool *workerpool.Pool) *Client {
	return &Client{http: c, stock: stock, who: who, pool: pool}
}

type lineChange struct {
	Email    string `validate:"required"`
	RecordID int    `validate:"min=1"`
	Amount   int    `validate:"min=1"`
}

// AddItem adds qty units of recordID to email's cart, then re-reads the
// record and broadcasts its stock.
func (c *Client) AddItem(ctx context.Context, email string, recordID, qty int) (*models.Record, error) {
	return c.change(ctx, "cart_details.add", "CartDetails/addToCartDetailAndCart/", email, recordID, qty)
}

// RemoveItem is the inverse of AddItem.
func (c *Client) RemoveItem(ctx context.Context, email string, recordID, qty int) (*models.Record, error) {
	return c.change(ctx, "cart_details.remove", "CartDetails/removeFromCartDetailAndCart/", email, recordID, qty)
}

func (c *Client) change(ctx context.Context, op, prefix, email string, recordID, qty int) (*models.Record, error) {
	if err := validate.Check(lineChange{Email: email, RecordID: recordID, Amount: qty}); err != nil {
		return nil, api.Validation(op, err)
	}

	req := c.http.Post(prefix+url.PathEscape(email)).
		Name(prefix+"{email}").
		Query("recordId", strconv.Itoa(recordID)).
		Query("amount", strconv.Itoa(qty))
	if _, err := api.Do(ctx, op, req); err != nil {
		return nil, err
	}

	rec, err := c.getRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("cartdetail: failed to get updated record: %w", err)
	}
	c.notify(rec.ID, rec.Stock)
	return rec, nil
}

// FetchRecord returns the record or nil. Failures are logged, not returned.
func (c *Client) FetchRecord(ctx context.Context, id int) *models.Record {
	rec, err := c.getRecord(ctx, id)
	if err != nil {
		logger.WithCtx(ctx).Warn("cartdetail: fetch record failed", "record_id", id, "error", err)
		return nil
	}
	return rec
}

func (c *Client) getRecord(ctx context.Context, id int) (*models.Record, error) {
	rec, err := api.One[*models.Record](ctx, "records.get",
		c.http.Get("records/"+strconv.Itoa(id)).Name("records/{id}"))
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.ID == 0 {
		return nil, &api.Error{Kind: api.ErrNotFound, Op: "records.get", Err: fmt.Errorf("record %d missing from response", id)}
	}
	return rec, nil
}

// FetchCartDetails lists the raw lines of email's cart. A non-admin asking
// for someone else's cart gets an empty list and no call is made.
func (c *Client) FetchCartDetails(ctx context.Context, email string) ([]models.CartDetail, error) {
	if !c.mayRead(email) {
		return []models.CartDetail{}, nil
	}
	return api.List[models.CartDetail](ctx, "cart_details.list",
		c.http.Get("cartdetails/getCartDetails/"+url.PathEscape(email)).
			Name("cartdetails/getCartDetails/{email}"))
}

// ItemCount returns the backend's item count for email. It is 0 for any
// user other than the signed-in one and on any failure.
func (c *Client) ItemCount(ctx context.Context, email string) int {
	if email == "" || (c.who != nil && c.who.Email() != email) {
		return 0
	}
	n, err := api.One[models.ItemCount](ctx, "cart_details.count",
		c.http.Get("CartDetails/getCartItemCount/"+url.PathEscape(email)).
			Name("CartDetails/getCartItemCount/{email}"))
	if err != nil {
		logger.WithCtx(ctx).Warn("cartdetail: item count failed", "email", email, "error", err)
		return 0
	}
	return n.TotalItems
}

// UpdateQuantity stores d as is. The backend echo, when present, is
// returned; otherwise d.
func (c *Client) UpdateQuantity(ctx context.Context, d models.CartDetail) (models.CartDetail, error) {
	if d.ID == 0 {
		return d, api.Validation("cart_details.update", validate.Errors{"idCartDetail": "The idCartDetail field is required."})
	}
	resp, err := api.Do(ctx, "cart_details.update",
		c.http.Put("CartDetails/"+strconv.Itoa(d.ID)).Name("CartDetails/{id}").Body(d))
	if err != nil {
		return d, err
	}
	var echo models.CartDetail
	if len(resp.Raw) > 0 && resp.JSON(&echo) == nil && echo.ID != 0 {
		return echo, nil
	}
	return d, nil
}

// UpdateStock applies delta to the record's stock and broadcasts the
// result.
func (c *Client) UpdateStock(ctx context.Context, recordID, delta int) (int, error) {
	const op = "records.update_stock"
	var body struct {
		NewStock *int `json:"newStock"`
	}
	req := c.http.Put("records/" + strconv.Itoa(recordID) + "/updateStock/" + strconv.Itoa(delta)).
		Name("records/{id}/updateStock/{delta}")
	resp, err := api.Do(ctx, op, req)
	if err != nil {
		return 0, err
	}
	if err := resp.JSON(&body); err != nil || body.NewStock == nil || *body.NewStock < 0 {
		return 0, &api.Error{Kind: api.ErrNetwork, Op: op, Status: resp.StatusCode, Err: ErrInvalidStock}
	}
	c.notify(recordID, *body.NewStock)
	return *body.NewStock, nil
}

// Increment raises d's quantity by one and takes one unit from stock. On
// any failure d.Amount is restored.
func (c *Client) Increment(ctx context.Context, d *models.CartDetail) error {
	return c.step(ctx, d, 1)
}

// Decrement lowers d's quantity by one and returns one unit to stock. It
// does nothing when the quantity is already 1 or less.
func (c *Client) Decrement(ctx context.Context, d *models.CartDetail) error {
	if d.Amount <= 1 {
		return nil
	}
	return c.step(ctx, d, -1)
}

func (c *Client) step(ctx context.Context, d *models.CartDetail, by int) error {
	prev := d.Amount
	d.Amount += by

	updated, err := c.UpdateQuantity(ctx, *d)
	if err != nil {
		d.Amount = prev
		return err
	}
	stock, err := c.UpdateStock(ctx, d.RecordID, -by)
	if err != nil {
		d.Amount = prev
		return err
	}
	updated.Amount = d.Amount
	updated.Stock = stock
	*d = updated
	return nil
}

// Enrich drops lines with no quantity and fills stock, title, price and
// group name from the live record of every remaining line. Lines whose
// record cannot be read are kept as they are.
func (c *Client) Enrich(ctx context.Context, details []models.CartDetail, groups []models.Group) ([]models.CartDetail, error) {
	names := make(map[int]string, len(groups))
	for _, g := range groups {
		if g.ID != 0 {
			names[g.ID] = g.Name
		}
	}

	out := collection.Filter(details, func(d models.CartDetail) bool { return d.Amount > 0 })

	records := make([]*models.Record, len(out))
	lookup := func(ctx context.Context, i int) {
		records[i] = c.FetchRecord(ctx, out[i].RecordID)
	}
	if c.pool != nil {
		if err := c.pool.Each(ctx, len(out), lookup); err != nil {
			return nil, fmt.Errorf("cartdetail: enrich: %w", err)
		}
	} else {
		for i := range out {
			lookup(ctx, i)
		}
	}

	for i, rec := range records {
		if rec == nil {
			continue
		}
		d := &out[i]
		d.Stock = rec.Stock
		d.GroupName = rec.GroupName
		if rec.GroupID != nil {
			if name := names[*rec.GroupID]; name != "" {
				d.GroupName = name
			}
		}
		if rec.Title != "" {
			d.Title = rec.Title
		}
		if rec.Price != 0 {
			d.Price = rec.Price
		}
	}
	return out, nil
}

// mayRead reports whether the signed-in user may read email's cart.
func (c *Client) mayRead(email string) bool {
	if email == "" {
		return false
	}
	if c.who == nil || c.who.IsAdmin() {
		return true
	}
	return c.who.Email() == email
}

func (c *Client) notify(recordID, stock int) {
	if c.stock != nil {
		c.stock.Notify(recordID, stock)
	}
}
