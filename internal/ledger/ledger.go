// Package ledger holds the client-side session and keeps the cached
// transactions, categories and summary in step with the backend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-client/internal/api"
	"finance-client/internal/auth"
	"finance-client/internal/log"
	"finance-client/internal/models"
	"finance-client/internal/storage"
)

// ErrNotAuthenticated is returned by operations that need a session when
// there is none.
var ErrNotAuthenticated = errors.New("not logged in")

// Backend is the subset of the REST client the controller drives.
type Backend interface {
	SetToken(token string)
	Register(ctx context.Context, r api.Registration) (*api.AuthResult, error)
	Login(ctx context.Context, cr api.Credentials) (*api.AuthResult, error)
	ListTransactions(ctx context.Context, p api.Period) ([]models.Transaction, error)
	Summary(ctx context.Context, p api.Period) (models.Summary, error)
	CreateTransaction(ctx context.Context, n api.NewTransaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, n api.NewCategory) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// SessionStore persists the session between runs.
type SessionStore interface {
	SaveSession(ctx context.Context, s models.Session) error
	LoadSession(ctx context.Context, apiURL string) (*models.Session, error)
	TouchSession(ctx context.Context, apiURL string, at time.Time) error
	DeleteSession(ctx context.Context, apiURL string) error
}

// State is a snapshot of the controller. Summary is nil until fetched.
type State struct {
	Authenticated bool
	User          models.User
	Period        api.Period
	Transactions  []models.Transaction
	Categories    []models.Category
	Summary       *models.Summary
}

// Controller owns the session and the three cached collections. It is safe
// for concurrent use.
type Controller struct {
	backend Backend
	store   SessionStore
	apiURL  string
	logger  *log.Logger
	now     func() time.Time

	mu           sync.Mutex
	epoch        uint64
	session      *models.Session
	period       api.Period
	transactions []models.Transaction
	categories   []models.Category
	summary      *models.Summary

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

type subscriber struct {
	id int
	fn func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l.WithComponent(log.ComponentLedger) }
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller for the backend at apiURL. Call Open to restore a
// persisted session.
func New(backend Backend, store SessionStore, apiURL string, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		store:   store,
		apiURL:  apiURL,
		logger:  log.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(log.FieldAPIURL, apiURL)
	return c
}

// Open restores the persisted session, if any. A session whose token has
// already expired is destroyed instead. Open does not fetch.
func (c *Controller) Open(ctx context.Context) error {
	s, err := c.store.LoadSession(ctx, c.apiURL)
	if errors.Is(err, storage.ErrNoSession) {
		return nil
	}
	if err != nil {
		c.logger.Failure(ctx, "load session", err)
		return fmt.Errorf("load session: %w", err)
	}

	now := c.now()
	if s.ExpiresAt.IsZero() {
		if id, err := auth.DecodeUnverified(s.Token); err == nil {
			s.ExpiresAt = id.ExpiresAt
		}
	}
	if s.Expired(now) {
		c.logger.Info("stored session expired", log.FieldUserID, s.User.ID)
		if err := c.store.DeleteSession(ctx, c.apiURL); err != nil {
			return fmt.Errorf("delete expired session: %w", err)
		}
		return nil
	}

	if err := c.store.TouchSession(ctx, c.apiURL, now); err != nil {
		c.logger.Failure(ctx, "touch session", err)
	}
	s.LastUsedAt = now

	c.mu.Lock()
	c.epoch++
	c.session = s
	c.clearLocked()
	c.backend.SetToken(s.Token)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("session restored", log.FieldUserID, s.User.ID)
	c.notify(state)
	return nil
}

// Login authenticates with email and password, persists the session and
// loads all collections. On failure the returned error carries the server's
// message. A controller that was logged out stays logged out; one that
// already held a session keeps it, in memory and in the store. Callers
// wanting a clean slate call Logout first.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	res, err := c.backend.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		c.logger.Failure(ctx, "login", err)
		return fmt.Errorf("login: %w", err)
	}
	return c.establish(ctx, res)
}

// Register creates an account and proceeds as Login does.
func (c *Controller) Register(ctx context.Context, email, password, firstName, lastName string) error {
	res, err := c.backend.Register(ctx, api.Registration{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		c.logger.Failure(ctx, "register", err)
		return fmt.Errorf("register: %w", err)
	}
	return c.establish(ctx, res)
}

func (c *Controller) establish(ctx context.Context, res *api.AuthResult) error {
	now := c.now()
	s := models.Session{
		APIURL:     c.apiURL,
		Token:      res.Token,
		User:       res.User,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if id, err := auth.DecodeUnverified(res.Token); err == nil {
		s.ExpiresAt = id.ExpiresAt
		if s.User.ID == 0 {
			s.User.ID = id.UserID
		}
		if s.User.Email == "" {
			s.User.Email = id.Email
		}
	} else {
		c.logger.Warn("token claims unreadable", log.FieldError, err)
	}

	if err := c.store.SaveSession(ctx, s); err != nil {
		c.logger.Failure(ctx, "save session", err)
		return fmt.Errorf("save session: %w", err)
	}

	c.mu.Lock()
	c.epoch++
	c.session = &s
	c.clearLocked()
	c.backend.SetToken(s.Token)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("logged in", log.FieldUserID, s.User.ID)
	c.notify(state)
	if err := c.Reload(ctx); err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	return nil
}

// Logout destroys the session and empties every collection.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.endLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	err := c.store.DeleteSession(ctx, c.apiURL)
	if err != nil {
		c.logger.Failure(ctx, "delete session", err)
		err = fmt.Errorf("delete session: %w", err)
	}
	c.notify(state)
	return err
}

// expire logs out after the server rejected the token, unless the session
// that made the request has already been replaced.
func (c *Controller) expire(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.endLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Warn("session rejected by server, logging out")
	if err := c.store.DeleteSession(ctx, c.apiURL); err != nil {
		c.logger.Failure(ctx, "delete session", err)
	}
	c.notify(state)
}

func (c *Controller) endLocked() {
	c.epoch++
	c.session = nil
	c.clearLocked()
	c.backend.SetToken("")
}

func (c *Controller) clearLocked() {
	c.transactions = nil
	c.categories = nil
	c.summary = nil
}

// SetPeriod restricts subsequent transaction and summary fetches to the
// window [from, to]. Zero bounds are open.
func (c *Controller) SetPeriod(from, to models.Date) error {
	if !from.IsZero() && !to.IsZero() && from.After(to.Time) {
		return fmt.Errorf("period starts %s after it ends %s", from, to)
	}
	c.mu.Lock()
	c.period = api.Period{From: from, To: to}
	c.mu.Unlock()
	return nil
}

// Authenticated reports whether a session is held.
func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Authenticated: c.session != nil,
		Period:        c.period,
		Transactions:  append([]models.Transaction(nil), c.transactions...),
		Categories:    append([]models.Category(nil), c.categories...),
	}
	if c.session != nil {
		st.User = c.session.User
	}
	if c.summary != nil {
		sum := *c.summary
		st.Summary = &sum
	}
	return st
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) notify(state State) {
	c.subMu.Lock()
	subs := append([]subscriber(nil), c.subs...)
	c.subMu.Unlock()
	for _, s := range subs {
		s.fn(state)
	}
}
