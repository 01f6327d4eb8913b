package catalog

import (
	"context"
	"strconv"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
)

func (c *Client) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return api.List[models.Genre](ctx, "genres.list", c.http.Get("musicGenres").Name("musicGenres"))
}

func (c *Client) AddGenre(ctx context.Context, g models.Genre) (models.Genre, error) {
	if err := validate.Check(g); err != nil {
		return models.Genre{}, api.Validation("genres.add", err)
	}
	return api.One[models.Genre](ctx, "genres.add",
		c.http.Post("musicGenres").Name("musicGenres").Body(g))
}

func (c *Client) UpdateGenre(ctx context.Context, g models.Genre) error {
	if err := validate.Check(g); err != nil {
		return api.Validation("genres.update", err)
	}
	_, err := api.Do(ctx, "genres.update",
		c.http.Put("musicGenres/"+strconv.Itoa(g.ID)).Name("musicGenres/{id}").Body(g))
	return err
}

func (c *Client) DeleteGenre(ctx context.Context, id int) error {
	_, err := api.Do(ctx, "genres.delete",
		c.http.Delete("musicGenres/"+strconv.Itoa(id)).Name("musicGenres/{id}"))
	return err
}
