package catalog

import (
	"context"
	"strconv"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

// RecordInput is a record plus an optional photo path on the photo disk.
type RecordInput struct {
	models.Record
	Photo string
}

// ListRecords lists every record and broadcasts each stock level.
func (c *Client) ListRecords(ctx context.Context) ([]models.Record, error) {
	records, err := api.List[models.Record](ctx, "records.list", c.http.Get("records").Name("records"))
	if err != nil {
		return nil, err
	}
	c.announce(records)
	return records, nil
}

func (c *Client) GetRecord(ctx context.Context, id int) (models.Record, error) {
	return api.One[models.Record](ctx, "records.get",
		c.http.Get("records/"+strconv.Itoa(id)).Name("records/{id}"))
}

// RecordsByGroup lists a group's records, tolerating every response shape
// the endpoint has been seen to produce, and stamps the group name on each.
func (c *Client) RecordsByGroup(ctx context.Context, groupID int) ([]models.Record, error) {
	resp, err := api.Do(ctx, "records.by_group",
		c.http.Get("groups/recordsByGroup/"+strconv.Itoa(groupID)).Name("groups/recordsByGroup/{id}"))
	if err != nil {
		return nil, err
	}
	records, err := decodeGroupRecords(resp.Raw)
	if err != nil {
		return nil, &api.Error{Kind: api.ErrNetwork, Op: "records.by_group", Status: resp.StatusCode, Err: err}
	}
	c.announce(records)
	return records, nil
}

func (c *Client) AddRecord(ctx context.Context, in RecordInput) (models.Record, error) {
	return c.saveRecord(ctx, "records.add", c.http.Post("records").Name("records"), in)
}

func (c *Client) UpdateRecord(ctx context.Context, in RecordInput) (models.Record, error) {
	return c.saveRecord(ctx, "records.update",
		c.http.Put("records/"+strconv.Itoa(in.ID)).Name("records/{id}"), in)
}

func (c *Client) DeleteRecord(ctx context.Context, id int) error {
	_, err := api.Do(ctx, "records.delete", c.http.Delete("records/"+strconv.Itoa(id)).Name("records/{id}"))
	return err
}

func (c *Client) saveRecord(ctx context.Context, op string, req *pkghttp.Request, in RecordInput) (models.Record, error) {
	if err := validate.Check(in.Record); err != nil {
		return models.Record{}, api.Validation(op, err)
	}
	if in.GroupID == nil {
		return models.Record{}, api.Validation(op, validate.Errors{"groupId": "The groupId field is required."})
	}

	year := ""
	if in.Year != nil {
		year = strconv.Itoa(*in.Year)
	}
	req.Form("titleRecord", in.Title).
		Form("yearOfPublication", year).
		Form("price", strconv.FormatFloat(in.Price, 'f', -1, 64)).
		Form("stock", strconv.Itoa(in.Stock)).
		Form("discontinued", strconv.FormatBool(in.Discontinued)).
		Form("groupId", strconv.Itoa(*in.GroupID))

	done, err := c.attachPhoto(ctx, req, in.Photo)
	if err != nil {
		return models.Record{}, api.Validation(op, err)
	}
	defer done()

	resp, err := api.Do(ctx, op, req)
	if err != nil {
		return models.Record{}, err
	}
	saved, found, err := wire.Object[models.Record](resp.Raw)
	if err != nil || !found {
		return in.Record, nil
	}
	c.announce([]models.Record{saved})
	return saved, nil
}

func (c *Client) announce(records []models.Record) {
	if c.stock == nil {
		return
	}
	for _, r := range records {
		if r.ID != 0 {
			c.stock.Notify(r.ID, r.Stock)
		}
	}
}
