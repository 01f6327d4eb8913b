package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/session"
	"github.com/shashiranjanraj/recordshop/pkg/auth"
	"github.com/shashiranjanraj/recordshop/pkg/cache"
	"github.com/shashiranjanraj/recordshop/pkg/crypt"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/testkit"
)

type fixture struct {
	store *session.Store
	mt    *testkit.MockTransport
	sess  *cache.Memory
	local *cache.Memory
	box   *crypt.Box
}

func newFixture(t *testing.T, seed func(*fixture)) *fixture {
	t.Helper()
	mt := testkit.NewMockTransport()
	t.Cleanup(mt.Install())
	box, err := crypt.New("test-app-key")
	require.NoError(t, err)

	f := &fixture{mt: mt, sess: cache.NewMemory(), local: cache.NewMemory(), box: box}
	if seed != nil {
		seed(f)
	}
	f.store = session.New(context.Background(), session.Options{
		HTTP:    pkghttp.NewClient("http://api.test/api/"),
		Session: f.sess,
		Local:   f.local,
		Box:     box,
	})
	t.Cleanup(f.store.Close)
	return f
}

func token(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	tok, err := auth.Sign(claims, "backend-secret")
	require.NoError(t, err)
	return tok
}

func TestAdminLoginRedirectsToGenres(t *testing.T) {
	f := newFixture(t, nil)
	tok := token(t, map[string]interface{}{auth.ClaimRole: "Admin", auth.ClaimCartID: "12"})
	f.mt.On("POST", "auth/login").JSON(200, map[string]string{"email": "root@example.com", "token": tok})

	path, err := f.store.Login(context.Background(), models.Credentials{Email: "root@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "/genres", path)
	assert.True(t, f.store.IsAdmin())
	assert.Equal(t, "root@example.com", f.store.Email())
	assert.Equal(t, tok, f.store.Token())

	id, ok := f.store.CartID()
	require.True(t, ok)
	assert.Equal(t, 12, id)

	raw, err := f.sess.Get(context.Background(), session.KeyUser)
	require.NoError(t, err)
	var persisted models.Session
	require.NoError(t, f.box.OpenJSON(string(raw), &persisted))
	assert.Equal(t, models.Session{Email: "root@example.com", Token: tok, Role: "Admin"}, persisted)
}

func TestCustomerLoginRedirectsToShop(t *testing.T) {
	f := newFixture(t, nil)
	tok := token(t, map[string]interface{}{"role": "User"})
	f.mt.On("POST", "auth/login").JSON(200, map[string]string{"email": "ann@example.com", "token": tok})

	path, err := f.store.Login(context.Background(), models.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "/", path)
	assert.False(t, f.store.IsAdmin())
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.store.Login(context.Background(), models.Credentials{Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, api.ErrValidation)
	assert.Empty(t, f.mt.Calls())

	f.mt.On("POST", "auth/login").Status(401)
	_, err = f.store.Login(context.Background(), models.Credentials{Email: "ann@example.com", Password: "bad"})
	assert.ErrorIs(t, err, api.ErrAuth)
	assert.Empty(t, f.store.Email())
}

func TestLoadsPersistedSession(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		sealed, err := f.box.SealJSON(models.Session{Email: "ann@example.com", Token: "t", Role: "User"})
		require.NoError(t, err)
		require.NoError(t, f.sess.Set(context.Background(), session.KeyUser, []byte(sealed)))
	})

	assert.Equal(t, session.Identity{Email: "ann@example.com", Role: "User"}, f.store.Identity())
	assert.Equal(t, "t", f.store.Token())
}

func TestCorruptSessionIsRemoved(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		require.NoError(t, f.sess.Set(context.Background(), session.KeyUser, []byte("{not sealed")))
	})

	assert.Empty(t, f.store.Email())
	_, err := f.sess.Get(context.Background(), session.KeyUser)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestSetEmailCleansPreviousUserKeys(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, k := range append(session.LocalKeys("ann@example.com"), "cart_bob@example.com", session.KeyDarkMode) {
		require.NoError(t, f.local.Set(ctx, k, []byte("x")))
	}

	require.NoError(t, f.store.SetEmail(ctx, "ann@example.com"))
	assert.Len(t, f.local.Keys(), 6, "first sign-in has nothing to clean")

	require.NoError(t, f.store.SetEmail(ctx, "ann@example.com"))
	assert.Len(t, f.local.Keys(), 6, "same email keeps its data")

	require.NoError(t, f.store.SetEmail(ctx, "bob@example.com"))
	assert.ElementsMatch(t, []string{"cart_bob@example.com", session.KeyDarkMode}, f.local.Keys())
}

func TestLogoutAnnouncesAndClears(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.mt.On("POST", "auth/login").JSON(200, map[string]string{"token": token(t, map[string]interface{}{"role": "User"})})
	_, err := f.store.Login(ctx, models.Credentials{Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.local.Set(ctx, "cart_ann@example.com", []byte("[]")))

	gone := f.store.LoggedOut()
	defer gone.Unsubscribe()

	require.NoError(t, f.store.Logout(ctx))

	select {
	case email := <-gone.C():
		assert.Equal(t, "ann@example.com", email)
	case <-time.After(time.Second):
		t.Fatal("no logout event")
	}
	assert.Equal(t, session.Identity{}, f.store.Identity())
	assert.Empty(t, f.store.Token())
	assert.Empty(t, f.local.Keys())
	_, err = f.sess.Get(ctx, session.KeyUser)
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, f.store.Logout(ctx), "second logout is a no-op")
}

func TestSubscribeSeesIdentityChanges(t *testing.T) {
	f := newFixture(t, nil)
	sub := f.store.Subscribe()
	defer sub.Unsubscribe()

	assert.Equal(t, session.Identity{}, <-sub.C())
	require.NoError(t, f.store.SetEmail(context.Background(), "ann@example.com"))
	assert.Equal(t, session.Identity{Email: "ann@example.com"}, <-sub.C())
}

func TestRegisterValidatesBeforeCalling(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.store.Register(ctx, models.Registration{Name: "Ann", Email: "ann@example.com", Password: "123"})
	assert.ErrorIs(t, err, api.ErrValidation)

	f.mt.On("POST", "auth/register").Status(201)
	require.NoError(t, f.store.Register(ctx, models.Registration{Name: "Ann", Email: "ann@example.com", Password: "secret1"}))
	assert.Equal(t, 1, f.mt.CallCount("POST", "auth/register"))
}

func TestDarkModePreference(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.False(t, f.store.DarkMode(ctx))
	require.NoError(t, f.store.SetDarkMode(ctx, true))
	assert.True(t, f.store.DarkMode(ctx))
	raw, _ := f.local.Get(ctx, session.KeyDarkMode)
	assert.Equal(t, "true", string(raw))
}
