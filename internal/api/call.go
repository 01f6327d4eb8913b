package api

import (
	"context"
	"errors"

	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/wire"
)

// Do sends req and maps every failure into the taxonomy.
func Do(ctx context.Context, op string, req *pkghttp.Request) (*pkghttp.Response, error) {
	resp, err := req.Send(ctx)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Op: op, Err: err}
	}
	if err := resp.Throw(); err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) {
			return resp, &Error{Kind: KindForStatus(se.StatusCode), Op: op, Status: se.StatusCode, Body: se.Body}
		}
		return resp, &Error{Kind: ErrNetwork, Op: op, Err: err}
	}
	return resp, nil
}

// List sends req and normalizes the body into a slice through wire.List.
func List[T any](ctx context.Context, op string, req *pkghttp.Request) ([]T, error) {
	resp, err := Do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	items, err := wire.List[T](resp.Raw)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	return items, nil
}

// One sends req and decodes a single entity through wire.Object. A body
// holding no entity at all is ErrNotFound.
func One[T any](ctx context.Context, op string, req *pkghttp.Request) (T, error) {
	var out T
	resp, err := Do(ctx, op, req)
	if err != nil {
		return out, err
	}
	out, found, err := wire.Object[T](resp.Raw)
	if err != nil {
		return out, &Error{Kind: ErrNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	if !found {
		return out, &Error{Kind: ErrNotFound, Op: op, Status: resp.StatusCode, Err: errors.New("empty response")}
	}
	return out, nil
}
