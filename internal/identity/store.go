// Package identity holds the end user's profile and verification progress.
// The login flow is an explicit placeholder for a real credential check: any
// password of six or more characters is accepted and the user record is
// synthesized locally.
package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dhfrrkqt/shoppingmall/internal/models"
	"github.com/dhfrrkqt/shoppingmall/internal/snapshot"
)

const defaultLoginDelay = 500 * time.Millisecond

// Store is the identity state container. Construct one per process with New
// and pass it to consumers; all methods are safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	user         models.User
	loggedIn     bool
	verification models.Verification

	snap       snapshot.Store
	logger     *slog.Logger
	loginDelay time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithLoginDelay overrides the simulated credential-check delay. Tests set it
// to zero.
func WithLoginDelay(d time.Duration) Option {
	return func(s *Store) { s.loginDelay = d }
}

// WithClock overrides the time source used for ids and join timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// persisted is the durable subset. Verification is deliberately excluded:
// every session starts unverified.
type persisted struct {
	User     *models.User `json:"user"`
	LoggedIn bool         `json:"isLoggedIn"`
}

// New builds the store and restores the persisted {user, isLoggedIn} pair, if
// any. Verification always starts at the default record.
func New(snap snapshot.Store, opts ...Option) *Store {
	s := &Store{
		snap:         snap,
		logger:       slog.Default(),
		loginDelay:   defaultLoginDelay,
		now:          time.Now,
		verification: models.DefaultVerification(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	data, ok, err := s.snap.Load(context.Background(), snapshot.IdentityKey)
	if err != nil {
		s.logger.Error("identity: failed to load snapshot", "error", err)
		return
	}
	if !ok {
		return
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Error("identity: corrupt snapshot, starting fresh", "error", err)
		return
	}
	if p.User != nil {
		s.user = *p.User
	}
	s.loggedIn = p.LoggedIn
}

// persist writes the durable subset. Called with the mutex held, after the
// mutation has been committed; a write failure is logged but does not undo
// the in-memory change.
func (s *Store) persist(ctx context.Context) {
	p := persisted{LoggedIn: s.loggedIn}
	if s.loggedIn {
		user := s.user
		p.User = &user
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("identity: failed to encode snapshot", "error", err)
		return
	}
	if err := s.snap.Save(ctx, snapshot.IdentityKey, data); err != nil {
		s.logger.Error("identity: failed to persist snapshot", "error", err)
	}
}

// delay simulates the round trip a real credential endpoint would take.
func (s *Store) delay(ctx context.Context) bool {
	if s.loginDelay <= 0 {
		return true
	}
	timer := time.NewTimer(s.loginDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Login accepts any non-empty email paired with a password of at least six
// characters and synthesizes a user whose display name is the email's local
// part. On failure the state is untouched.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	if !s.delay(ctx) {
		return false
	}
	if email == "" || len(password) < 6 {
		s.logger.Warn("identity: login rejected", "email", email)
		return false
	}

	name, _, _ := strings.Cut(email, "@")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = models.User{
		ID:            "1",
		Email:         email,
		Name:          name,
		JoinedAt:      s.now(),
		EmailVerified: true,
		PhoneVerified: false,
		IsActive:      true,
	}
	s.loggedIn = true
	s.persist(ctx)
	return true
}

// SignupInput carries the profile fields collected at registration.
type SignupInput struct {
	Email   string
	Name    string
	Phone   string
	Address string
}

// Signup always succeeds after the simulated delay, assigning a time-derived
// unique id and logging the new user in with both verification flags unset.
func (s *Store) Signup(ctx context.Context, input SignupInput) bool {
	if !s.delay(ctx) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.user = models.User{
		ID:       strconv.FormatInt(now.UnixNano(), 10),
		Email:    input.Email,
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		JoinedAt: now,
		IsActive: true,
	}
	s.loggedIn = true
	s.persist(ctx)
	return true
}

// Logout clears the user and resets verification to its initial record. It is
// idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = models.User{}
	s.loggedIn = false
	s.verification = models.DefaultVerification()
	s.persist(ctx)
}

// UpdateProfile shallow-merges the supplied fields into the current user.
// A no-op when nobody is logged in.
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return
	}
	update.ApplyTo(&s.user)
	s.persist(ctx)
}

// CurrentUser returns the logged-in user, if any.
func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.loggedIn
}

// LoggedIn reports whether a user session is active.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Verification returns the current verification record.
func (s *Store) Verification() models.Verification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verification
}

// The verification setters below are independent field updates; no flag gates
// another. None of them touch the snapshot: verification does not survive a
// session boundary.

func (s *Store) SetVerificationMethod(method models.VerificationMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.Method = method
}

func (s *Store) SetEmailVerificationSent(sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.EmailSent = sent
}

func (s *Store) SetPhoneVerificationSent(sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.PhoneSent = sent
}

func (s *Store) SetEmailVerified(verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.EmailVerified = verified
}

func (s *Store) SetPhoneVerified(verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification.PhoneVerified = verified
}

// ResetVerification restores the initial verification record.
func (s *Store) ResetVerification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification = models.DefaultVerification()
}
