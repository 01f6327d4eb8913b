// Package app wires the storefront client together.
//
// An App owns every store and client for one process: the session and
// identity store, the cart store, the stock notifier and the API clients.
// Nothing in the domain packages is a package-level singleton; commands
// and the feed server get what they need from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/shashiranjanraj/recordshop/config"
	"github.com/shashiranjanraj/recordshop/internal/cart"
	"github.com/shashiranjanraj/recordshop/internal/cartdetail"
	"github.com/shashiranjanraj/recordshop/internal/catalog"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/orders"
	"github.com/shashiranjanraj/recordshop/internal/session"
	"github.com/shashiranjanraj/recordshop/internal/stock"
	"github.com/shashiranjanraj/recordshop/internal/users"
	"github.com/shashiranjanraj/recordshop/pkg/cache"
	"github.com/shashiranjanraj/recordshop/pkg/crypt"
	"github.com/shashiranjanraj/recordshop/pkg/database"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/storage"
	"github.com/shashiranjanraj/recordshop/pkg/workerpool"
)

// Options configures New. Zero values fall back to config.
type Options struct {
	APIURL      string
	StateDriver string
	Timeout     time.Duration
	Retries     int
	PoolSize    int
	AppKey      string
	JWTSecret   string

	// Local and Session replace the configured state driver when both are
	// set. Tests pass memory stores here.
	Local   cache.Store
	Session cache.Store
	// Disk holds state files and record photos. Opened from config when nil.
	Disk storage.Disk
}

// OptionsFromConfig reads every option from config.
func OptionsFromConfig() Options {
	return Options{
		APIURL:      config.APIURL(),
		StateDriver: config.StateDriver(),
		Timeout:     config.RequestTimeout(),
		Retries:     config.HTTPRetries(),
		PoolSize:    config.PoolSize(),
		AppKey:      config.AppKey(),
		JWTSecret:   config.JWTSecret(),
	}
}

type App struct {
	HTTP    *pkghttp.Client
	Stock   *stock.Notifier
	Pool    *workerpool.Pool
	Session *session.Store
	Details *cartdetail.Client
	Cart    *cart.Store
	Catalog *catalog.Client
	Orders  *orders.Client
	Users   *users.Client

	closers []func() error
}

// New opens the state stores and builds every client. The persisted
// session, if any, is loaded; the cart is not touched until Boot or Start.
func New(ctx context.Context, o Options) (*App, error) {
	if o.PoolSize <= 0 {
		o.PoolSize = 1
	}
	a := &App{}

	disk := o.Disk
	if disk == nil && (o.Local == nil || o.Session == nil || o.StateDriver == "disk") {
		d, err := storage.Open(ctx, storage.FromConfig())
		if err != nil {
			logger.Warn("app: storage disk unavailable, photo uploads disabled", "error", err)
		} else {
			disk = d
		}
	}

	local, sess := o.Local, o.Session
	if local == nil || sess == nil {
		var err error
		local, sess, err = a.openStores(ctx, o.StateDriver, disk)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	var box *crypt.Box
	if o.AppKey != "" {
		b, err := crypt.New(o.AppKey)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: session cipher: %w", err)
		}
		box = b
	}

	a.HTTP = pkghttp.NewClient(o.APIURL)
	if o.Timeout > 0 {
		a.HTTP.Timeout = o.Timeout
	}
	if o.Retries > 0 {
		a.HTTP.Retries = o.Retries
	}
	a.HTTP.Token = func() string {
		if a.Session == nil {
			return ""
		}
		return a.Session.Token()
	}

	a.Stock = stock.NewNotifier(0)
	a.Pool = workerpool.New(o.PoolSize)
	a.Session = session.New(ctx, session.Options{
		HTTP:      a.HTTP,
		Session:   sess,
		Local:     local,
		Box:       box,
		JWTSecret: o.JWTSecret,
	})
	a.Details = cartdetail.New(a.HTTP, a.Stock, a.Session, a.Pool)
	a.Cart = cart.New(cart.Options{
		HTTP:     a.HTTP,
		Details:  a.Details,
		Identity: a.Session,
		Local:    local,
		Pool:     a.Pool,
	})
	a.Catalog = catalog.New(a.HTTP, a.Stock, disk)
	a.Orders = orders.New(a.HTTP)
	a.Users = users.New(a.HTTP)

	a.closers = append(a.closers,
		func() error { a.Cart.Close(); return nil },
		func() error { a.Session.Close(); return nil },
		func() error { a.Stock.Close(); return nil },
		func() error { a.Pool.Shutdown(); return nil },
	)
	return a, nil
}

// openStores builds the local and session stores for driver. Each store
// is instrumented under its driver name.
func (a *App) openStores(ctx context.Context, driver string, disk storage.Disk) (cache.Store, cache.Store, error) {
	switch driver {
	case "memory":
		return cache.Instrument(cache.NewMemory(), driver), cache.Instrument(cache.NewMemory(), driver), nil

	case "", "disk":
		if disk == nil {
			return nil, nil, errors.New("app: disk state driver needs a storage disk")
		}
		dir := config.StateDir()
		local := cache.NewDisk(disk, path.Join(dir, "local"))
		sess := cache.NewDisk(disk, path.Join(dir, "session"))
		return cache.Instrument(local, "disk"), cache.Instrument(sess, "disk"), nil

	case "redis":
		local, err := cache.ConnectRedis(ctx, config.RedisAddr(), config.RedisPassword(), "recordshop:local:")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, local.Close)
		sess, err := cache.ConnectRedis(ctx, config.RedisAddr(), config.RedisPassword(), "recordshop:session:")
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, sess.Close)
		return cache.Instrument(local, driver), cache.Instrument(sess, driver), nil

	case "sql":
		db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
		if err != nil {
			return nil, nil, err
		}
		st, err := cache.NewSQL(db)
		if err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		a.closers = append(a.closers, st.Close)
		// The session only ever writes "user", which no local key uses,
		// so one table serves both.
		s := cache.Instrument(st, driver)
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("app: unknown state driver %q (supported: memory, disk, redis, sql)", driver)
	}
}

// Boot makes the signed-in user, if any, the cart owner: the snapshot is
// shown and the cart resynced. One-shot commands call it before reading
// the cart.
func (a *App) Boot(ctx context.Context) error {
	return a.Cart.SwitchUser(ctx, a.Session.Email())
}

// Start keeps the cart owner in step with the session until ctx is done.
// Long-running commands call it instead of Boot.
func (a *App) Start(ctx context.Context) {
	sub := a.Session.Subscribe()
	go func() {
		defer sub.Unsubscribe()
		a.Cart.Follow(ctx, sub.C())
	}()

	out := a.Session.LoggedOut()
	go func() {
		defer out.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case email, ok := <-out.C():
				if !ok {
					return
				}
				logger.WithCtx(ctx).Info("app: signed out", "email", email)
			}
		}
	}()
}

// Checkout places an order for the signed-in user's cart and, once the
// backend accepted it, empties the local cart.
func (a *App) Checkout(ctx context.Context, paymentMethod string) (models.Order, error) {
	order, err := a.Orders.CreateFromCart(ctx, a.Session.Email(), paymentMethod)
	if err != nil {
		return models.Order{}, err
	}
	a.Cart.Reset()
	return order, nil
}

// Logout ends the session. The cart store follows through the identity
// subscription when Start is running; otherwise it is cleared here.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	return a.Cart.SwitchUser(ctx, "")
}

// Close releases every store and worker. It is safe on a partly built App.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
