package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/pkg/router"
)

func TestGroupRoutesAndURL(t *testing.T) {
	r := router.New()
	var seen []string
	tag := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	g := r.Group("/records", tag("group"))
	g.Get("/{id}", "records.show", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []string{"group", "route"}, seen)

	url, err := r.URL("records.show", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/records/7", url)

	_, err = r.URL("records.show", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Post("/b", "b.post", noop)
	r.Get("/b", "b.get", noop)
	r.Get("/a", "a", noop)
	r.Get("/hidden", "", noop)

	assert.Equal(t, []router.RouteInfo{
		{Method: "GET", Path: "/a", Name: "a"},
		{Method: "GET", Path: "/b", Name: "b.get"},
		{Method: "POST", Path: "/b", Name: "b.post"},
	}, r.Routes())
}
