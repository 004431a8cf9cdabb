// Package admin mirrors the back-office state of the remote admin API: the
// admin session plus cached user, product and order collections and the
// dashboard aggregate. Every mutation waits for the remote acknowledgment
// before touching local state; there are no optimistic updates.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dhfrrkqt/shoppingmall/internal/api"
	"github.com/dhfrrkqt/shoppingmall/internal/models"
	"github.com/dhfrrkqt/shoppingmall/internal/snapshot"
)

// Store is the admin state container. The cached collections reflect the last
// successful fetch or mutation response; a failed remote call leaves them
// untouched and is reported only through the logger and the boolean return.
type Store struct {
	mu        sync.Mutex
	admin     models.AdminUser
	loggedIn  bool
	users     []models.User
	products  []models.Product
	orders    []models.Order
	dashboard models.DashboardStats

	client *api.Client
	snap   snapshot.Store
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// persisted is the durable subset. Dashboard stats are excluded on purpose:
// they are always refetched.
type persisted struct {
	LoggedIn bool              `json:"isAdminLoggedIn"`
	Admin    *models.AdminUser `json:"adminUser"`
	Users    []models.User     `json:"users"`
	Orders   []models.Order    `json:"orders"`
	Products []models.Product  `json:"products"`
}

// New builds the store and restores the persisted session and collections,
// if any. Dashboard stats start empty.
func New(client *api.Client, snap snapshot.Store, opts ...Option) *Store {
	s := &Store{
		client: client,
		snap:   snap,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	data, ok, err := s.snap.Load(context.Background(), snapshot.AdminKey)
	if err != nil {
		s.logger.Error("admin: failed to load snapshot", "error", err)
		return
	}
	if !ok {
		return
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Error("admin: corrupt snapshot, starting fresh", "error", err)
		return
	}
	s.loggedIn = p.LoggedIn
	if p.Admin != nil {
		s.admin = *p.Admin
	}
	s.users = p.Users
	s.orders = p.Orders
	s.products = p.Products
}

// persist writes the durable subset. Called with the mutex held, after the
// mutation has been committed; a write failure is logged but does not undo
// the in-memory change.
func (s *Store) persist(ctx context.Context) {
	p := persisted{
		LoggedIn: s.loggedIn,
		Users:    s.users,
		Orders:   s.orders,
		Products: s.products,
	}
	if s.loggedIn {
		admin := s.admin
		p.Admin = &admin
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("admin: failed to encode snapshot", "error", err)
		return
	}
	if err := s.snap.Save(ctx, snapshot.AdminKey, data); err != nil {
		s.logger.Error("admin: failed to persist snapshot", "error", err)
	}
}

// Login checks credentials against the API. On success it stores the admin
// identity and loads the initial dashboard, user, product and order data
// before returning true. Any failure is logged and reported as false with the
// session state untouched.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	admin, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("admin: login failed", "email", email, "error", err)
		return false
	}

	s.mu.Lock()
	s.admin = admin
	s.loggedIn = true
	s.persist(ctx)
	s.mu.Unlock()

	// Best effort: a failed initial load leaves the collections stale (or
	// empty) but does not fail the login itself.
	s.LoadInitialData(ctx)
	return true
}

// Logout is local only: it clears the admin identity but keeps the cached
// collections so a re-login does not refetch everything. Callers should be
// aware the caches can go stale across sessions.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = models.AdminUser{}
	s.loggedIn = false
	s.persist(ctx)
}

// RefreshDashboard refetches the dashboard aggregate and replaces it
// wholesale.
func (s *Store) RefreshDashboard(ctx context.Context) bool {
	stats, err := s.client.DashboardStats(ctx)
	if err != nil {
		s.logger.Error("admin: failed to refresh dashboard", "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = stats
	return true
}

// LoadInitialData fetches the dashboard, users, products and orders
// concurrently and replaces all four slices at once. The join is
// all-or-nothing: a single failed request discards every result, including
// the ones that succeeded.
func (s *Store) LoadInitialData(ctx context.Context) bool {
	var (
		stats    models.DashboardStats
		users    []models.User
		products []models.Product
		orders   []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.client.DashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.client.Users(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.client.Products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.client.Orders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("admin: initial data load failed", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = stats
	s.users = users
	s.products = products
	s.orders = orders
	s.persist(ctx)
	return true
}

// Users returns a copy of the cached user collection. No network access.
func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// Products returns a copy of the cached product catalog. No network access.
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

// Orders returns a copy of the cached order collection. No network access.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Dashboard returns the last fetched dashboard aggregate.
func (s *Store) Dashboard() models.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dashboard
}

// LoggedIn reports whether an admin session is active.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Admin returns the admin identity, if logged in.
func (s *Store) Admin() (models.AdminUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admin, s.loggedIn
}

// SearchUsers is a read-through call: it returns the server's matches without
// touching the cached user collection. On failure it returns an empty slice.
func (s *Store) SearchUsers(ctx context.Context, query string) []models.User {
	users, err := s.client.Users(ctx, query)
	if err != nil {
		s.logger.Error("admin: user search failed", "query", query, "error", err)
		return nil
	}
	return users
}

// SetUserActive toggles one account's active flag remotely, then patches
// exactly that user in the cache.
func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) bool {
	if err := s.client.SetUserActive(ctx, userID, active); err != nil {
		s.logger.Error("admin: failed to update user status", "userId", userID, "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].IsActive = active
			break
		}
	}
	s.persist(ctx)
	return true
}

// AddProduct creates the product remotely and appends the server-echoed
// record, including its assigned id, sales counter and creation timestamp.
func (s *Store) AddProduct(ctx context.Context, input models.ProductInput) bool {
	product, err := s.client.CreateProduct(ctx, input)
	if err != nil {
		s.logger.Error("admin: failed to add product", "name", input.Name, "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, product)
	s.persist(ctx)
	return true
}

// UpdateProduct applies a partial update remotely, then shallow-merges the
// same fields into the cached product.
func (s *Store) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) bool {
	if err := s.client.UpdateProduct(ctx, id, update); err != nil {
		s.logger.Error("admin: failed to update product", "id", id, "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			update.ApplyTo(&s.products[i])
			break
		}
	}
	s.persist(ctx)
	return true
}

// DeleteProduct removes the product remotely, then drops it from the cache.
func (s *Store) DeleteProduct(ctx context.Context, id int64) bool {
	if err := s.client.DeleteProduct(ctx, id); err != nil {
		s.logger.Error("admin: failed to delete product", "id", id, "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = slices.DeleteFunc(s.products, func(p models.Product) bool {
		return p.ID == id
	})
	s.persist(ctx)
	return true
}

// SetOrderStatus moves one order to the given status remotely, patches the
// cached order, then refreshes the dashboard: status changes shift the
// aggregate counts.
func (s *Store) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) bool {
	if err := s.client.SetOrderStatus(ctx, orderID, status); err != nil {
		s.logger.Error("admin: failed to update order status", "orderId", orderID, "error", err)
		return false
	}
	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			break
		}
	}
	s.persist(ctx)
	s.mu.Unlock()

	s.RefreshDashboard(ctx)
	return true
}
