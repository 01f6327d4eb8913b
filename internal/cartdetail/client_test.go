package cartdetail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/cartdetail"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/stock"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/testkit"
	"github.com/shashiranjanraj/recordshop/pkg/workerpool"
)

type identity struct {
	email string
	admin bool
}

func (i identity) Email() string { return i.email }
func (i identity) IsAdmin() bool { return i.admin }

func newClient(t *testing.T, who cartdetail.Identity) (*cartdetail.Client, *testkit.MockTransport, *stock.Notifier) {
	t.Helper()
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	n := stock.NewNotifier(0)
	t.Cleanup(n.Close)
	pool := workerpool.New(2)
	t.Cleanup(pool.Shutdown)
	return cartdetail.New(pkghttp.NewClient("http://api.test/api/"), n, who, pool), mt, n
}

func nextUpdate(t *testing.T, n *stock.Notifier, fn func()) stock.Update {
	t.Helper()
	sub := n.Subscribe()
	defer sub.Unsubscribe()
	fn()
	select {
	case u := <-sub.C():
		return u
	case <-time.After(time.Second):
		t.Fatal("no stock update received")
		return stock.Update{}
	}
}

func TestAddItemBroadcastsRefreshedStock(t *testing.T) {
	c, mt, n := newClient(t, identity{email: "ann@example.com"})
	mt.On("POST", "CartDetails/addToCartDetailAndCart/ann@example.com?amount=1&recordId=7").Status(200)
	mt.On("GET", "records/7").Body(200, `{"idRecord":7,"titleRecord":"Blue Train","stock":2,"price":12.5}`)

	var rec *models.Record
	u := nextUpdate(t, n, func() {
		var err error
		rec, err = c.AddItem(context.Background(), "ann@example.com", 7, 1)
		require.NoError(t, err)
	})

	assert.Equal(t, stock.Update{RecordID: 7, NewStock: 2}, u)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Stock)
	testkit.AssertAllCalled(t, mt)
}

func TestAddItemFailsWhenRecordCannotBeRead(t *testing.T) {
	c, mt, n := newClient(t, nil)
	sub := n.Subscribe()
	defer sub.Unsubscribe()
	mt.On("POST", "CartDetails/addToCartDetailAndCart/ann@example.com").Status(200)
	mt.On("GET", "records/7").Body(200, `null`)

	_, err := c.AddItem(context.Background(), "ann@example.com", 7, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get updated record")
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Empty(t, sub.C())
}

func TestAddItemPropagatesAuthFailure(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	mt.On("POST", "CartDetails/addToCartDetailAndCart/ann@example.com").Status(401)

	_, err := c.AddItem(context.Background(), "ann@example.com", 7, 1)
	assert.ErrorIs(t, err, api.ErrAuth)
	assert.Zero(t, mt.CallCount("GET", "records/7"))
}

func TestRemoveItemRejectsInvalidInputWithoutCalling(t *testing.T) {
	c, mt, _ := newClient(t, nil)

	cases := []struct {
		email  string
		record int
		qty    int
	}{
		{"", 7, 1},
		{"ann@example.com", 0, 1},
		{"ann@example.com", 7, 0},
	}
	for _, tc := range cases {
		_, err := c.RemoveItem(context.Background(), tc.email, tc.record, tc.qty)
		assert.ErrorIs(t, err, api.ErrValidation)
	}
	assert.Empty(t, mt.Calls())
}

func TestRemoveItemUsesRemoveEndpoint(t *testing.T) {
	c, mt, n := newClient(t, nil)
	mt.On("POST", "CartDetails/removeFromCartDetailAndCart/ann@example.com?amount=1&recordId=7").Status(200)
	mt.On("GET", "records/7").Body(200, `{"idRecord":7,"stock":4}`)

	u := nextUpdate(t, n, func() {
		_, err := c.RemoveItem(context.Background(), "ann@example.com", 7, 1)
		require.NoError(t, err)
	})
	assert.Equal(t, stock.Update{RecordID: 7, NewStock: 4}, u)
}

func TestFetchRecordSwallowsErrors(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	mt.On("GET", "records/9").Status(500)
	mt.On("GET", "records/10").Fail(errors.New("connection refused"))

	assert.Nil(t, c.FetchRecord(context.Background(), 9))
	assert.Nil(t, c.FetchRecord(context.Background(), 10))
}

func TestFetchCartDetailsOwnership(t *testing.T) {
	body := `{"$values":[{"idCartDetail":1,"recordId":7,"amount":2,"price":5}]}`

	t.Run("other user as customer", func(t *testing.T) {
		c, mt, _ := newClient(t, identity{email: "ann@example.com"})
		details, err := c.FetchCartDetails(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.Empty(t, details)
		assert.Empty(t, mt.Calls())
	})

	t.Run("other user as admin", func(t *testing.T) {
		c, mt, _ := newClient(t, identity{email: "root@example.com", admin: true})
		mt.On("GET", "cartdetails/getCartDetails/bob@example.com").Body(200, body)
		details, err := c.FetchCartDetails(context.Background(), "bob@example.com")
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, 2, details[0].Amount)
	})

	t.Run("own cart", func(t *testing.T) {
		c, mt, _ := newClient(t, identity{email: "ann@example.com"})
		mt.On("GET", "cartdetails/getCartDetails/ann@example.com").Body(200, body)
		details, err := c.FetchCartDetails(context.Background(), "ann@example.com")
		require.NoError(t, err)
		assert.Len(t, details, 1)
	})
}

func TestFetchCartDetailsToleratesMistypedFields(t *testing.T) {
	c, mt, _ := newClient(t, identity{email: "ann@example.com"})
	mt.On("GET", "cartdetails/getCartDetails/ann@example.com").Body(200, `{"$values":[
		{"idCartDetail":"1","recordId":7,"titleRecord":"Blue Train","amount":"2","price":"12.5","stock":null},
		null,
		{"recordId":8,"amount":1,"price":{"value":3},"imageRecord":""}]}`)

	details, err := c.FetchCartDetails(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, []models.CartDetail{
		{ID: 1, RecordID: 7, Title: "Blue Train", Amount: 2, Price: 12.5},
		{RecordID: 8, Amount: 1},
	}, details)
}

func TestItemCount(t *testing.T) {
	c, mt, _ := newClient(t, identity{email: "ann@example.com"})
	mt.On("GET", "CartDetails/getCartItemCount/ann@example.com").Body(200, `{"totalItems":3}`)

	assert.Equal(t, 3, c.ItemCount(context.Background(), "ann@example.com"))
	assert.Equal(t, 0, c.ItemCount(context.Background(), "bob@example.com"))

	mt.On("GET", "CartDetails/getCartItemCount/ann@example.com").Status(500)
	assert.Equal(t, 0, c.ItemCount(context.Background(), "ann@example.com"))
}

func TestUpdateStockRequiresNonNegativeValue(t *testing.T) {
	c, mt, n := newClient(t, nil)
	mt.On("PUT", "records/7/updateStock/-1").Body(200, `{"newStock":2}`)

	var got int
	u := nextUpdate(t, n, func() {
		var err error
		got, err = c.UpdateStock(context.Background(), 7, -1)
		require.NoError(t, err)
	})
	assert.Equal(t, 2, got)
	assert.Equal(t, stock.Update{RecordID: 7, NewStock: 2}, u)

	for _, body := range []string{`{"newStock":-1}`, `{}`, `"ok"`} {
		mt.On("PUT", "records/7/updateStock/-1").Body(200, body)
		_, err := c.UpdateStock(context.Background(), 7, -1)
		assert.ErrorIs(t, err, cartdetail.ErrInvalidStock, body)
	}
}

func TestIncrementUpdatesQuantityThenStock(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	mt.On("PUT", "CartDetails/11").Status(204)
	mt.On("PUT", "records/7/updateStock/-1").Body(200, `{"newStock":1}`)

	d := models.CartDetail{ID: 11, RecordID: 7, Amount: 1, Price: 5}
	require.NoError(t, c.Increment(context.Background(), &d))
	assert.Equal(t, 2, d.Amount)
	assert.Equal(t, 1, d.Stock)

	calls := mt.Calls()
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"idCartDetail":11,"cartId":0,"recordId":7,"amount":2,"price":5}`, string(calls[0].Body))
}

func TestIncrementRestoresAmountOnStockFailure(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	mt.On("PUT", "CartDetails/11").Status(204)
	mt.On("PUT", "records/7/updateStock/-1").Status(409)

	d := models.CartDetail{ID: 11, RecordID: 7, Amount: 1}
	err := c.Increment(context.Background(), &d)
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Equal(t, 1, d.Amount)
}

func TestDecrementStopsAtOne(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	d := models.CartDetail{ID: 11, RecordID: 7, Amount: 1}

	require.NoError(t, c.Decrement(context.Background(), &d))
	assert.Equal(t, 1, d.Amount)
	assert.Empty(t, mt.Calls())

	mt.On("PUT", "CartDetails/11").Status(204)
	mt.On("PUT", "records/7/updateStock/1").Body(200, `{"newStock":5}`)
	d.Amount = 3
	require.NoError(t, c.Decrement(context.Background(), &d))
	assert.Equal(t, 2, d.Amount)
	assert.Equal(t, 5, d.Stock)
}

func TestEnrichFillsFromRecordsAndGroups(t *testing.T) {
	c, mt, _ := newClient(t, nil)
	mt.On("GET", "records/7").Body(200, `{"idRecord":7,"titleRecord":"Blue Train","stock":3,"price":12.5,"groupId":4}`)
	mt.On("GET", "records/8").Status(404)

	details := []models.CartDetail{
		{ID: 1, RecordID: 7, Amount: 1, Price: 10},
		{ID: 2, RecordID: 8, Amount: 2, Title: "Giant Steps", Price: 9},
		{ID: 3, RecordID: 9, Amount: 0},
	}
	groups := []models.Group{{ID: 4, Name: "John Coltrane"}}

	out, err := c.Enrich(context.Background(), details, groups)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Blue Train", out[0].Title)
	assert.Equal(t, 12.5, out[0].Price)
	assert.Equal(t, 3, out[0].Stock)
	assert.Equal(t, "John Coltrane", out[0].GroupName)

	assert.Equal(t, "Giant Steps", out[1].Title)
	assert.Equal(t, 9.0, out[1].Price)
	for _, call := range mt.Calls() {
		assert.NotEqual(t, "/api/records/9", call.Path)
	}
}
