package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/app"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/auth"
	"github.com/shashiranjanraj/recordshop/pkg/cache"
	"github.com/shashiranjanraj/recordshop/pkg/storage"
	"github.com/shashiranjanraj/recordshop/pkg/testkit"
)

const ann = "ann@example.com"

func newApp(t *testing.T, o app.Options) *app.App {
	t.Helper()
	if o.APIURL == "" {
		o.APIURL = "http://api.test/api/"
	}
	a, err := app.New(context.Background(), o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func memoryOptions() app.Options {
	return app.Options{Local: cache.NewMemory(), Session: cache.NewMemory(), PoolSize: 2, AppKey: "test-app-key"}
}

func login(t *testing.T, mt *testkit.MockTransport, a *app.App) {
	t.Helper()
	tok, err := auth.Sign(map[string]interface{}{auth.ClaimRole: "Customer"}, "backend-secret")
	require.NoError(t, err)
	mt.On("POST", "auth/login").JSON(200, map[string]string{"token": tok})

	to, err := a.Session.Login(context.Background(), models.Credentials{Email: ann, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/", to)
}

func stubCart(mt *testkit.MockTransport) {
	mt.On("GET", "Carts/GetCartStatus/"+ann).JSON(200, models.CartStatus{Enabled: true})
	mt.On("GET", "cartdetails/getCartDetails/"+ann).Body(200, `{"$values":[{"recordId":4,"titleRecord":"Blue Train","price":10,"amount":2}]}`)
}

func TestBootLoadsSignedInCart(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	a := newApp(t, memoryOptions())
	login(t, mt, a)
	stubCart(mt)

	require.NoError(t, a.Boot(context.Background()))

	st := a.Cart.Current()
	assert.Equal(t, ann, st.Email)
	assert.Equal(t, 2, st.ItemCount)
	assert.Equal(t, 20.0, st.Total)

	for _, c := range mt.Calls() {
		if c.Path != "/api/auth/login" {
			assert.Equal(t, "Bearer "+a.Session.Token(), c.Header.Get("Authorization"), c.Path)
		}
	}
}

func TestCheckoutResetsCartAfterOrder(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	a := newApp(t, memoryOptions())
	login(t, mt, a)
	stubCart(mt)
	require.NoError(t, a.Boot(context.Background()))

	mt.On("POST", "orders/from-cart/"+ann).Body(201, `{"idOrder":9,"paymentMethod":"Card","total":20}`)

	order, err := a.Checkout(context.Background(), "Card")
	require.NoError(t, err)
	assert.Equal(t, 9, order.ID)

	st := a.Cart.Current()
	assert.Equal(t, ann, st.Email)
	assert.Empty(t, st.Lines)
	assert.Zero(t, st.Total)
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	a := newApp(t, memoryOptions())
	login(t, mt, a)
	stubCart(mt)
	require.NoError(t, a.Boot(context.Background()))

	mt.On("POST", "orders/from-cart/"+ann).Status(500)

	_, err := a.Checkout(context.Background(), "Card")
	require.Error(t, err)
	assert.Equal(t, 2, a.Cart.Current().ItemCount)
}

func TestLogoutClearsCartOwner(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	a := newApp(t, memoryOptions())
	login(t, mt, a)
	stubCart(mt)
	require.NoError(t, a.Boot(context.Background()))

	require.NoError(t, a.Logout(context.Background()))

	assert.Empty(t, a.Session.Email())
	assert.Empty(t, a.Cart.Current().Email)
	assert.Empty(t, a.Cart.Current().Lines)
}

func TestStartFollowsLogin(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	a := newApp(t, memoryOptions())
	stubCart(mt)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.Start(ctx)

	login(t, mt, a)

	require.Eventually(t, func() bool {
		st := a.Cart.Current()
		return st.Email == ann && st.ItemCount == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDiskDriverPersistsSessionAcrossRuns(t *testing.T) {
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	disk, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	first := newApp(t, app.Options{StateDriver: "disk", Disk: disk, AppKey: "test-app-key"})
	login(t, mt, first)
	require.NoError(t, first.Close())

	second := newApp(t, app.Options{StateDriver: "disk", Disk: disk, AppKey: "test-app-key"})
	assert.Equal(t, ann, second.Session.Email())
	assert.Equal(t, "Customer", second.Session.Role())
}

func TestUnknownStateDriver(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = app.New(context.Background(), app.Options{StateDriver: "etcd", Disk: disk})
	assert.ErrorContains(t, err, `unknown state driver "etcd"`)
}
