// Package session holds the signed-in identity.
//
// The identity is loaded once from the session store under "user" and
// published as an observable value. Switching or logging out a user
// deletes that user's cart keys from the local store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/recordshop/internal/api"
	"github.com/shashiranjanraj/recordshop/internal/models"
	"github.com/shashiranjanraj/recordshop/pkg/auth"
	"github.com/shashiranjanraj/recordshop/pkg/cache"
	"github.com/shashiranjanraj/recordshop/pkg/crypt"
	"github.com/shashiranjanraj/recordshop/pkg/event"
	pkghttp "github.com/shashiranjanraj/recordshop/pkg/http"
	"github.com/shashiranjanraj/recordshop/pkg/logger"
	"github.com/shashiranjanraj/recordshop/pkg/validate"
)

const (
	// KeyUser is the session store key of the persisted session.
	KeyUser = "user"
	// KeyDarkMode is the local store key of the dark mode preference.
	KeyDarkMode = "darkMode"

	PathAdmin = "/genres"
	PathShop  = "/"
)

// Identity is the observable part of a session.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Store is the session and identity store.
type Store struct {
	http      *pkghttp.Client
	sess      cache.Store
	local     cache.Store
	box       *crypt.Box
	jwtSecret string

	mu    sync.RWMutex
	token string

	ident     *event.Value[Identity]
	loggedOut *event.Bus[string]
}

// Options configures a Store. Box may be nil, in which case the session
// is stored as plain JSON.
type Options struct {
	HTTP      *pkghttp.Client
	Session   cache.Store
	Local     cache.Store
	Box       *crypt.Box
	JWTSecret string
}

// New builds a Store and loads any persisted session.
func New(ctx context.Context, o Options) *Store {
	s := &Store{
		http:      o.HTTP,
		sess:      o.Session,
		local:     o.Local,
		box:       o.Box,
		jwtSecret: o.JWTSecret,
		ident:     event.NewValue(Identity{}),
		loggedOut: event.NewBus[string](0),
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	sess, ok, err := s.readSession(ctx)
	if err != nil {
		logger.WithCtx(ctx).Warn("session: discarding unreadable session", "error", err)
		if err := s.sess.Delete(ctx, KeyUser); err != nil {
			logger.WithCtx(ctx).Error("session: delete failed", "error", err)
		}
		return
	}
	if !ok || sess.Email == "" {
		return
	}
	s.mu.Lock()
	s.token = sess.Token
	s.mu.Unlock()
	s.ident.Set(Identity{Email: sess.Email, Role: sess.Role})
}

func (s *Store) readSession(ctx context.Context) (models.Session, bool, error) {
	var sess models.Session
	if s.box == nil {
		ok, err := cache.GetJSON(ctx, s.sess, KeyUser, &sess)
		return sess, ok, err
	}
	raw, err := s.sess.Get(ctx, KeyUser)
	if errors.Is(err, cache.ErrMiss) {
		return sess, false, nil
	}
	if err != nil {
		return sess, false, err
	}
	if err := s.box.OpenJSON(string(raw), &sess); err != nil {
		return sess, false, err
	}
	return sess, true, nil
}

func (s *Store) writeSession(ctx context.Context, sess models.Session) error {
	if s.box == nil {
		return cache.SetJSON(ctx, s.sess, KeyUser, sess)
	}
	sealed, err := s.box.SealJSON(sess)
	if err != nil {
		return err
	}
	return s.sess.Set(ctx, KeyUser, []byte(sealed))
}

// Identity returns the current identity. Email is empty when signed out.
func (s *Store) Identity() Identity { return s.ident.Get() }

func (s *Store) Email() string { return s.ident.Get().Email }

func (s *Store) Role() string { return s.ident.Get().Role }

func (s *Store) IsAdmin() bool { return s.ident.Get().Role == models.RoleAdmin }

// Token returns the bearer token of the current session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe returns a receiver primed with the current identity.
func (s *Store) Subscribe() *event.Subscription[Identity] { return s.ident.Subscribe() }

// LoggedOut returns a receiver for the email of every user that logs out.
func (s *Store) LoggedOut() *event.Subscription[string] { return s.loggedOut.Subscribe() }

// SetEmail switches the identity to email, first deleting the previous
// user's cart keys when it differs. The role is kept.
func (s *Store) SetEmail(ctx context.Context, email string) error {
	cur := s.ident.Get()
	if cur.Email != "" && cur.Email != email {
		if err := s.cleanLocal(ctx, cur.Email); err != nil {
			return err
		}
	}
	s.ident.Update(func(id Identity) Identity {
		id.Email = email
		return id
	})
	return nil
}

func (s *Store) SetRole(role string) {
	s.ident.Update(func(id Identity) Identity {
		id.Role = role
		return id
	})
}

// LocalKeys lists every local store key that belongs to email.
func LocalKeys(email string) []string {
	return []string{
		"cart_" + email,
		email + "_cart",
		email + "_cartItemsCount",
		email + "_cartItems",
	}
}

func (s *Store) cleanLocal(ctx context.Context, email string) error {
	if s.local == nil || email == "" {
		return nil
	}
	if err := s.local.Delete(ctx, LocalKeys(email)...); err != nil {
		return fmt.Errorf("session: clean local data for %s: %w", email, err)
	}
	return nil
}

// Logout announces the departing email, deletes its local keys and the
// persisted session, and clears the identity. It does nothing when no one
// is signed in.
func (s *Store) Logout(ctx context.Context) error {
	email := s.Email()
	if email == "" {
		return nil
	}
	s.loggedOut.Publish(email)

	var errs []error
	if err := s.cleanLocal(ctx, email); err != nil {
		errs = append(errs, err)
	}
	if err := s.sess.Delete(ctx, KeyUser); err != nil {
		errs = append(errs, fmt.Errorf("session: remove session: %w", err))
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.ident.Set(Identity{})

	logger.WithCtx(ctx).Info("session: logged out", "email", email)
	return errors.Join(errs...)
}

// Login authenticates, persists the session and switches identity. It
// returns the path the user belongs on.
func (s *Store) Login(ctx context.Context, creds models.Credentials) (string, error) {
	const op = "auth.login"
	if err := validate.Check(creds); err != nil {
		return "", api.Validation(op, err)
	}

	resp, err := api.One[models.LoginResponse](ctx, op, s.http.Post("auth/login").Name("auth/login").Body(creds))
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &api.Error{Kind: api.ErrAuth, Op: op, Err: errors.New("no token in response")}
	}

	role := resp.Role
	claims, err := auth.Decode(resp.Token, s.jwtSecret)
	switch {
	case err == nil:
		if claims.Role != "" {
			role = claims.Role
		}
	case s.jwtSecret != "":
		return "", &api.Error{Kind: api.ErrAuth, Op: op, Err: err}
	default:
		logger.WithCtx(ctx).Warn("session: token not decodable, keeping response role", "error", err)
	}

	sess := models.Session{Email: creds.Email, Token: resp.Token, Role: role}
	if err := s.writeSession(ctx, sess); err != nil {
		return "", fmt.Errorf("session: persist: %w", err)
	}

	s.mu.Lock()
	s.token = resp.Token
	s.mu.Unlock()
	if err := s.SetEmail(ctx, creds.Email); err != nil {
		logger.WithCtx(ctx).Warn("session: local cleanup failed", "error", err)
	}
	s.SetRole(role)

	logger.WithCtx(ctx).Info("session: logged in", "email", creds.Email, "role", role)
	return s.RedirectBasedOnRole(), nil
}

// Register creates an account. It does not sign the user in.
func (s *Store) Register(ctx context.Context, in models.Registration) error {
	const op = "auth.register"
	if err := validate.Check(in); err != nil {
		return api.Validation(op, err)
	}
	_, err := api.Do(ctx, op, s.http.Post("auth/register").Name("auth/register").Body(in))
	return err
}

// RedirectBasedOnRole is the landing path for the current role.
func (s *Store) RedirectBasedOnRole() string {
	if s.IsAdmin() {
		return PathAdmin
	}
	return PathShop
}

// CartID returns the CartId claim of the current token, if any.
func (s *Store) CartID() (int, bool) {
	token := s.Token()
	if token == "" {
		return 0, false
	}
	claims, err := auth.Decode(token, "")
	if err != nil || claims.CartID == nil {
		return 0, false
	}
	return *claims.CartID, true
}

// DarkMode reports the stored preference. Anything but "true" is false.
func (s *Store) DarkMode(ctx context.Context) bool {
	if s.local == nil {
		return false
	}
	raw, err := s.local.Get(ctx, KeyDarkMode)
	return err == nil && string(raw) == "true"
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	if s.local == nil {
		return errors.New("session: no local store")
	}
	v := "false"
	if on {
		v = "true"
	}
	return s.local.Set(ctx, KeyDarkMode, []byte(v))
}

// Close detaches every subscriber.
func (s *Store) Close() {
	s.ident.Close()
	s.loggedOut.Close()
}
