// Package catalog talks to the genre, group and record endpoints.
//
// Every listing goes through api.List, so the reference-preserving
// {"$values": [...]} envelope never reaches callers. Record reads and
// writes broadcast the stock they observe so open views stay current.
package catalog

import (
	"context"
	"fmt"
	"path"

	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/storage"
)

// StockNotifier receives every stock level the catalog observes.
type StockNotifier interface {
	Notify(recordID, newStock int)
}

// Client is the catalog API client.
type Client struct {
	http   *pkghttp.Client
	stock  StockNotifier
	photos storage.Disk
}

// New returns a Client. photos may be nil when uploads are not needed.
func New(c *pkghttp.Client, stock StockNotifier, photos storage.Disk) *Client {
	return &Client{http: c, stock: stock, photos: photos}
}

// attachPhoto adds the photo part when name is set. The returned closer
// must run after the request was sent.
func (c *Client) attachPhoto(ctx context.Context, req *pkghttp.Request, name string) (func(), error) {
	if name == "" {
		return func() {}, nil
	}
	if c.photos == nil {
		return nil, fmt.Errorf("catalog: photo %q given but no photo disk configured", name)
	}
	rc, err := c.photos.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: open photo: %w", err)
	}
	req.File("photo", path.Base(name), rc)
	return func() { _ = rc.Close() }, nil
}
