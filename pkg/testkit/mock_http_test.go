package testkit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/testkit"
)

func TestMockTransportMatchesSuffixAndMethod(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "records/7").JSON(200, map[string]int{"stock": 2})
	defer mt.Install()()

	c := pkghttp.NewClient("http://api.test/api/")
	resp, err := c.Get("records/7").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"stock":2}`, resp.Text())

	resp, err = c.Post("records/7").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	assert.Equal(t, 1, mt.CallCount("GET", "records/7"))
	assert.Len(t, mt.Calls(), 2)
}

func TestMockTransportLaterRouteWins(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "orders").Status(200)
	mt.On("GET", "orders").Status(500)
	defer mt.Install()()

	resp, err := pkghttp.NewClient("http://api.test/").Get("orders").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestMockTransportQueryMatch(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "add?amount=1&recordId=7").Status(201)
	defer mt.Install()()

	resp, err := pkghttp.NewClient("http://api.test/").Post("add").
		Query("recordId", "7").Query("amount", "1").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
}

func TestMockTransportFailAndStrict(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.Strict = true
	mt.On("GET", "down").Fail(errors.New("connection refused"))
	defer mt.Install()()

	c := pkghttp.NewClient("http://api.test/")
	_, err := c.Get("down").Send(context.Background())
	assert.Error(t, err)
	_, err = c.Get("unknown").Send(context.Background())
	assert.Error(t, err)
}

func TestLoadFixture(t *testing.T) {
	mt := testkit.NewMockTransport()
	require.NoError(t, mt.Load("testdata/routes.json"))
	defer mt.Install()()

	c := pkghttp.NewClient("http://api.test/api/")
	resp, err := c.Get("musicGenres").Send(context.Background())
	require.NoError(t, err)
	testkit.AssertJSONEqual(t, []byte(`{"$values":[{"idMusicGenre":1,"nameMusicGenre":"Jazz"}]}`), resp.Raw)

	resp, err = c.Delete("musicGenres/1").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	testkit.AssertAllCalled(t, mt)
}
