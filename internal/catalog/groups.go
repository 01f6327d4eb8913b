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

// GroupInput is a group plus an optional photo path on the photo disk.
type GroupInput struct {
	models.Group
	Photo string
}

func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	return api.List[models.Group](ctx, "groups.list", c.http.Get("groups").Name("groups"))
}

// GetGroup fetches one group, bare or wrapped.
func (c *Client) GetGroup(ctx context.Context, id int) (models.Group, error) {
	resp, err := api.Do(ctx, "groups.get", c.http.Get("groups/"+strconv.Itoa(id)).Name("groups/{id}"))
	if err != nil {
		return models.Group{}, err
	}
	g, found, err := wire.Object[models.Group](resp.Raw)
	if err != nil {
		return models.Group{}, &api.Error{Kind: api.ErrNetwork, Op: "groups.get", Status: resp.StatusCode, Err: err}
	}
	if !found {
		return models.Group{}, &api.Error{Kind: api.ErrNotFound, Op: "groups.get", Status: resp.StatusCode}
	}
	return g, nil
}

// GroupName returns the group's name, or "" when the response holds none.
func (c *Client) GroupName(ctx context.Context, id int) (string, error) {
	resp, err := api.Do(ctx, "groups.name", c.http.Get("groups/"+strconv.Itoa(id)).Name("groups/{id}"))
	if err != nil {
		return "", err
	}
	g, _, err := wire.Object[models.Group](resp.Raw)
	if err != nil {
		return "", nil
	}
	return g.Name, nil
}

func (c *Client) AddGroup(ctx context.Context, in GroupInput) (models.Group, error) {
	return c.saveGroup(ctx, "groups.add", c.http.Post("groups").Name("groups"), in)
}

func (c *Client) UpdateGroup(ctx context.Context, in GroupInput) (models.Group, error) {
	return c.saveGroup(ctx, "groups.update",
		c.http.Put("groups/"+strconv.Itoa(in.ID)).Name("groups/{id}"), in)
}

func (c *Client) saveGroup(ctx context.Context, op string, req *pkghttp.Request, in GroupInput) (models.Group, error) {
	if err := validate.Check(in.Group); err != nil {
		return models.Group{}, api.Validation(op, err)
	}
	req.Form("nameGroup", in.Name).
		Form("musicGenreId", strconv.Itoa(in.MusicGenreID))
	done, err := c.attachPhoto(ctx, req, in.Photo)
	if err != nil {
		return models.Group{}, api.Validation(op, err)
	}
	defer done()

	resp, err := api.Do(ctx, op, req)
	if err != nil {
		return models.Group{}, err
	}
	g, _, err := wire.Object[models.Group](resp.Raw)
	if err != nil {
		return in.Group, nil
	}
	return g, nil
}

func (c *Client) DeleteGroup(ctx context.Context, id int) error {
	_, err := api.Do(ctx, "groups.delete", c.http.Delete("groups/"+strconv.Itoa(id)).Name("groups/{id}"))
	return err
}
