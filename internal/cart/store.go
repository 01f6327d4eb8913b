// Package cart keeps the signed-in user's cart.
//
// The state is mirrored three ways: the backend is the authority, a
// snapshot is persisted locally under cart_<email> so a restart shows the
// last known cart at once, and the in-memory value is published to every
// subscriber. Mutations run the remote call first and only touch local
// state once it succeeded.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/cartdetail"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/internal/session"
	"github.com/shashiranjanraj/recordshop/pkg/cache"
	"github.com/shashiranjanraj/recordshop/pkg/collection"
	"github.com/shashiranjanraj/recordshop/pkg/event"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/metrics"
	"github.com/shashiranjanraj/recordshop/pkg/telemetry"
	"github.com/shashiranjanraj/recordshop/pkg/workerpool"
)

// ErrNotInCart is returned by RemoveFromCart for a record with no line.
var ErrNotInCart = errors.New("cart: record not in cart")

// Identity supplies the signed-in email.
type Identity interface {
	Email() string
}

// Store is the cart state store.
type Store struct {
	http    *pkghttp.Client
	details *cartdetail.Client
	who     Identity
	local   cache.Store
	pool    *workerpool.Pool

	// mu serializes mutations so read-modify-write of a line is atomic.
	mu    sync.Mutex
	state *event.Value[models.CartState]
}

// Options configures a Store. Pool may be nil.
type Options struct {
	HTTP     *pkghttp.Client
	Details  *cartdetail.Client
	Identity Identity
	Local    cache.Store
	Pool     *workerpool.Pool
}

func New(o Options) *Store {
	return &Store{
		http:    o.HTTP,
		details: o.Details,
		who:     o.Identity,
		local:   o.Local,
		pool:    o.Pool,
		state:   event.NewValue(models.CartState{Enabled: true}),
	}
}

// SnapshotKey is the local store key of email's cart.
func SnapshotKey(email string) string { return "cart_" + email }

// Current returns the published state.
func (s *Store) Current() models.CartState { return s.state.Get() }

// Subscribe returns a receiver primed with the current state.
func (s *Store) Subscribe() *event.Subscription[models.CartState] { return s.state.Subscribe() }

// SwitchUser makes email the cart owner. The persisted snapshot, if any,
// is published at once; then the backend decides whether the cart is
// enabled and, if so, resyncs it.
func (s *Store) SwitchUser(ctx context.Context, email string) error {
	if email == "" {
		s.mu.Lock()
		s.publish(ctx, build("", nil, true), false)
		s.mu.Unlock()
		return nil
	}

	var lines []models.CartLine
	if _, err := cache.GetJSON(ctx, s.local, SnapshotKey(email), &lines); err != nil {
		logger.WithCtx(ctx).Warn("cart: unreadable snapshot", "email", email, "error", err)
		lines = nil
	}
	s.mu.Lock()
	s.publish(ctx, build(email, lines, true), false)
	s.mu.Unlock()

	if !s.Status(ctx, email) {
		s.mu.Lock()
		s.publish(ctx, build(email, nil, false), false)
		s.mu.Unlock()
		return nil
	}
	return s.Resync(ctx, email)
}

// Follow runs SwitchUser for every identity received until ctx ends or
// the channel closes.
func (s *Store) Follow(ctx context.Context, identities <-chan session.Identity) {
	last := "\x00"
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-identities:
			if !ok {
				return
			}
			if id.Email == last {
				continue
			}
			last = id.Email
			if err := s.SwitchUser(ctx, id.Email); err != nil {
				logger.WithCtx(ctx).Warn("cart: switch user failed", "email", id.Email, "error", err)
			}
		}
	}
}

// Resync replaces the lines with the backend's. Lines the backend no
// longer has stay with quantity 0 and InCart false. On error the state is
// left untouched.
func (s *Store) Resync(ctx context.Context, email string) error {
	ctx, span := telemetry.Start(ctx, "cart.resync", attribute.String("cart.email", email))
	defer span.End()

	details, err := s.details.FetchCartDetails(ctx, email)
	if err != nil {
		metrics.CartSyncs.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fmt.Errorf("cart: resync %s: %w", email, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]models.CartLine, 0, len(details))
	seen := make(map[int]bool, len(details))
	for _, d := range details {
		lines = append(lines, lineFromDetail(d))
		seen[d.RecordID] = true
	}

	enabled := true
	cur := s.state.Get()
	if cur.Email == email {
		enabled = cur.Enabled
		for _, l := range cur.Lines {
			if seen[l.RecordID] {
				continue
			}
			l.Quantity = 0
			l.InCart = false
			lines = append(lines, l)
		}
	}

	next := build(email, lines, enabled)
	s.publish(ctx, next, true)
	metrics.CartSyncs.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("cart.items", next.ItemCount))
	return nil
}

func lineFromDetail(d models.CartDetail) models.CartLine {
	qty := d.Amount
	if qty == 0 {
		qty = 1
	}
	return models.CartLine{
		RecordID:  d.RecordID,
		Title:     d.DisplayTitle(),
		Image:     d.Image,
		GroupName: d.GroupName,
		Price:     d.Price,
		Quantity:  qty,
		Stock:     d.Stock,
		InCart:    true,
	}
}

// AddToCart adds one unit of record for the signed-in user.
func (s *Store) AddToCart(ctx context.Context, record models.Record) (models.CartState, error) {
	email := s.email()
	if email == "" {
		return s.Current(), &api.Error{Kind: api.ErrAuth, Op: "cart.add", Err: errors.New("unauthenticated user")}
	}

	updated, err := s.details.AddItem(ctx, email, record.ID, 1)
	if err != nil {
		return s.Current(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lines, enabled := s.ownedBy(email)
	i := indexOf(lines, record.ID)
	if i >= 0 {
		lines[i].Quantity++
		lines[i].InCart = true
		lines[i].Stock = updated.Stock
	} else {
		line := models.CartLine{
			RecordID:  record.ID,
			Title:     record.Title,
			Image:     record.Image,
			GroupName: record.DisplayGroup(),
			Price:     record.Price,
			Quantity:  1,
			Stock:     updated.Stock,
			InCart:    true,
		}
		if updated.Title != "" {
			line.Title = updated.Title
		}
		if line.Price == 0 {
			line.Price = updated.Price
		}
		lines = append(lines, line)
	}
	next := build(email, lines, enabled)
	s.publish(ctx, next, true)
	return next, nil
}

// RemoveFromCart takes one unit of record out of the signed-in user's
// cart. A line reaching zero is dropped.
func (s *Store) RemoveFromCart(ctx context.Context, record models.Record) (models.CartState, error) {
	email := s.email()
	if email == "" {
		return s.Current(), &api.Error{Kind: api.ErrAuth, Op: "cart.remove", Err: errors.New("unauthenticated user")}
	}
	if cur := s.Current(); cur.Email != email {
		return cur, ErrNotInCart
	} else if l, ok := cur.Line(record.ID); !ok || l.Quantity <= 0 {
		return cur, ErrNotInCart
	}

	updated, err := s.details.RemoveItem(ctx, email, record.ID, 1)
	if err != nil {
		return s.Current(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lines, enabled := s.ownedBy(email)
	if i := indexOf(lines, record.ID); i >= 0 {
		lines[i].Quantity = max(0, lines[i].Quantity-1)
		lines[i].Stock = updated.Stock
		if lines[i].Quantity == 0 {
			lines = append(lines[:i], lines[i+1:]...)
		}
	}
	next := build(email, lines, enabled)
	s.publish(ctx, next, true)
	return next, nil
}

// UpdateLine replaces the line of the same record, if there is one.
func (s *Store) UpdateLine(ctx context.Context, line models.CartLine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state.Get()
	lines := cloneLines(cur.Lines)
	i := indexOf(lines, line.RecordID)
	if i < 0 {
		return false
	}
	lines[i] = line
	s.publish(ctx, build(cur.Email, lines, cur.Enabled), true)
	return true
}

// UpdateNavbar overrides the published count and total without touching
// the lines. The next mutation recomputes both.
func (s *Store) UpdateNavbar(count int, total float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Update(func(st models.CartState) models.CartState {
		st.ItemCount = count
		st.Total = total
		return st
	})
	metrics.SetCart(count, total)
}

// Reset clears lines, count and total. The owner and enabled flag stay.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state.Get()
	s.publish(context.Background(), build(cur.Email, nil, cur.Enabled), false)
}

// Disable disables email's cart on the backend. For the signed-in user the
// lines are kept with price and quantity 0.
func (s *Store) Disable(ctx context.Context, email string) error {
	if _, err := api.Do(ctx, "carts.disable",
		s.http.Post("Carts/Disable/"+url.PathEscape(email)).Name("Carts/Disable/{email}")); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.state.Get()
	if cur.Email != email {
		return nil
	}
	lines := cloneLines(cur.Lines)
	for i := range lines {
		lines[i].Price = 0
		lines[i].Quantity = 0
	}
	s.publish(ctx, build(email, lines, false), true)
	return nil
}

// Enable enables email's cart on the backend. Lines come back with the
// next resync.
func (s *Store) Enable(ctx context.Context, email string) error {
	if _, err := api.Do(ctx, "carts.enable",
		s.http.Post("Carts/Enable/"+url.PathEscape(email)).Name("Carts/Enable/{email}")); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Get().Email == email {
		s.state.Update(func(st models.CartState) models.CartState {
			st.Enabled = true
			return st
		})
	}
	return nil
}

// Status reports whether email's cart is enabled. A cart the backend does
// not know yet counts as enabled; any other failure as disabled.
func (s *Store) Status(ctx context.Context, email string) bool {
	st, err := api.One[models.CartStatus](ctx, "carts.status",
		s.http.Get("Carts/GetCartStatus/"+url.PathEscape(email)).Name("Carts/GetCartStatus/{email}"))
	if err == nil {
		return st.Enabled
	}
	if errors.Is(err, api.ErrNotFound) {
		return true
	}
	logger.WithCtx(ctx).Warn("cart: status check failed", "email", email, "error", err)
	return false
}

// Statuses checks several carts concurrently.
func (s *Store) Statuses(ctx context.Context, emails []string) (map[string]bool, error) {
	out := make([]bool, len(emails))
	check := func(ctx context.Context, i int) { out[i] = s.Status(ctx, emails[i]) }
	if s.pool != nil {
		if err := s.pool.Each(ctx, len(emails), check); err != nil {
			return nil, err
		}
	} else {
		for i := range emails {
			check(ctx, i)
		}
	}
	m := make(map[string]bool, len(emails))
	for i, e := range emails {
		m[e] = out[i]
	}
	return m, nil
}

// Cart reads email's cart, trying the legacy lookup path when the primary
// one fails.
func (s *Store) Cart(ctx context.Context, email string) (models.Cart, error) {
	c, err := api.One[models.Cart](ctx, "carts.get",
		s.http.Get("Carts/"+url.PathEscape(email)).Name("Carts/{email}"))
	if err == nil {
		return c, nil
	}
	logger.WithCtx(ctx).Debug("cart: primary lookup failed, trying GetCartByEmail", "email", email, "error", err)
	return api.One[models.Cart](ctx, "carts.get_by_email",
		s.http.Get("Carts/GetCartByEmail/"+url.PathEscape(email)).Name("Carts/GetCartByEmail/{email}"))
}

// AllCarts lists every cart.
func (s *Store) AllCarts(ctx context.Context) ([]models.Cart, error) {
	return api.List[models.Cart](ctx, "carts.list", s.http.Get("Carts").Name("Carts"))
}

// ApplyToggle returns carts with email's entry patched after an enable or
// disable. A disabled cart shows a zero total.
func ApplyToggle(carts []models.Cart, email string, enabled bool) []models.Cart {
	out := make([]models.Cart, len(carts))
	copy(out, carts)
	for i := range out {
		if out[i].UserEmail != email {
			continue
		}
		out[i].Enabled = enabled
		if !enabled {
			out[i].TotalPrice = 0
		}
	}
	return out
}

// Close detaches every subscriber.
func (s *Store) Close() { s.state.Close() }

func (s *Store) email() string {
	if s.who == nil {
		return ""
	}
	return s.who.Email()
}

// ownedBy returns a copy of the published lines and enabled flag when they
// belong to email. State still held for another owner, as between a login
// and the SwitchUser that follows it, is never carried over. Callers hold mu.
func (s *Store) ownedBy(email string) ([]models.CartLine, bool) {
	cur := s.state.Get()
	if cur.Email != email {
		return nil, true
	}
	return cloneLines(cur.Lines), cur.Enabled
}

// publish stores next and, when persist is set, writes its lines under
// the owner's snapshot key. Callers hold mu.
func (s *Store) publish(ctx context.Context, next models.CartState, persist bool) {
	if persist && next.Email != "" && s.local != nil {
		if err := cache.SetJSON(ctx, s.local, SnapshotKey(next.Email), next.Lines); err != nil {
			logger.WithCtx(ctx).Error("cart: persist snapshot failed", "email", next.Email, "error", err)
		}
	}
	s.state.Set(next)
	metrics.SetCart(next.ItemCount, next.Total)
}

// build derives count and total from lines.
func build(email string, lines []models.CartLine, enabled bool) models.CartState {
	st := models.CartState{Email: email, Lines: lines, Enabled: enabled}
	if st.Lines == nil {
		st.Lines = []models.CartLine{}
	}
	st.ItemCount = collection.Sum(lines, func(l models.CartLine) int { return l.Quantity })
	st.Total = collection.Sum(lines, models.CartLine.Subtotal)
	return st
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []models.CartLine, recordID int) int {
	return collection.IndexOf(lines, func(l models.CartLine) bool { return l.RecordID == recordID })
}
