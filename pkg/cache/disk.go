package cache

import (
	"context"
	"errors"
	"net/url"
	"path"

	"github.com/shashiranjanraj/recordshop/pkg/storage"
)

// Disk stores each key as <dir>/<escaped key>.json on a storage.Disk.
type Disk struct {
	disk storage.Disk
	dir  string
}

// NewDisk returns a Store writing under dir on disk.
func NewDisk(disk storage.Disk, dir string) *Disk {
	return &Disk{disk: disk, dir: dir}
}

func (d *Disk) file(key string) string {
	return path.Join(d.dir, url.PathEscape(key)+".json")
}

func (d *Disk) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := d.disk.Get(ctx, d.file(key))
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrMiss
	}
	return raw, err
}

func (d *Disk) Set(ctx context.Context, key string, value []byte) error {
	return d.disk.Put(ctx, d.file(key), value)
}

func (d *Disk) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := d.disk.Delete(ctx, d.file(k)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Disk) Close() error { return nil }
