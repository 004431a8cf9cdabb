package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhfrrkqt/shoppingmall/internal/admin"
	"github.com/dhfrrkqt/shoppingmall/internal/api"
	"github.com/dhfrrkqt/shoppingmall/internal/models"
	"github.com/dhfrrkqt/shoppingmall/internal/snapshot"
)

// fakeBackend is an in-memory stand-in for the remote admin API speaking the
// {success, data, message} envelope.
type fakeBackend struct {
	mu             sync.Mutex
	users          []models.User
	products       []models.Product
	orders         []models.Order
	stats          models.DashboardStats
	nextProductID  int64
	dashboardCalls int

	failAuth     bool
	failProducts bool // GET /products responds 500
	failCreate   bool // POST /products responds success:false
}

func newFakeBackend() *fakeBackend {
	joined := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return &fakeBackend{
		users: []models.User{
			{ID: "u1", Email: "kim@mall.test", Name: "Kim", JoinedAt: joined, IsActive: true},
			{ID: "u2", Email: "lee@mall.test", Name: "Lee", JoinedAt: joined, IsActive: true},
		},
		products: []models.Product{
			{ID: 1, Name: "Hoodie", Price: 39.0, Category: "apparel", Stock: 8, IsActive: true, Sales: 120, CreatedAt: joined},
		},
		orders: []models.Order{
			{ID: "o1", UserID: "u1", UserName: "Kim", UserEmail: "kim@mall.test", TotalAmount: 39.0, Status: models.OrderPending, CreatedAt: joined},
		},
		stats: models.DashboardStats{
			TotalUsers: 2, TotalOrders: 1, TotalRevenue: 39.0,
			OrdersByStatus: map[models.OrderStatus]int{models.OrderPending: 1},
		},
		nextProductID: 2,
	}
}

func writeData(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeFailure(w http.ResponseWriter, message string) {
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/auth", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAuth {
			writeFailure(w, "invalid credentials")
			return
		}
		writeData(w, models.AdminUser{ID: "a1", Email: "admin@mall.test", Name: "Admin", Role: "superadmin"})
	})

	mux.HandleFunc("GET /api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.dashboardCalls++
		writeData(w, f.stats)
	})

	mux.HandleFunc("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		search := r.URL.Query().Get("search")
		if search == "" {
			writeData(w, f.users)
			return
		}
		var matched []models.User
		for _, u := range f.users {
			if u.Name == search {
				matched = append(matched, u)
			}
		}
		writeData(w, matched)
	})

	mux.HandleFunc("PATCH /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID   string `json:"userId"`
			IsActive bool   `json:"isActive"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.users {
			if f.users[i].ID == body.UserID {
				f.users[i].IsActive = body.IsActive
			}
		}
		writeData(w, nil)
	})

	mux.HandleFunc("GET /api/admin/products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failProducts {
			http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
			return
		}
		writeData(w, f.products)
	})

	mux.HandleFunc("POST /api/admin/products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCreate {
			writeFailure(w, "name already taken")
			return
		}
		var input models.ProductInput
		json.NewDecoder(r.Body).Decode(&input)
		product := models.Product{
			ID:            f.nextProductID,
			Name:          input.Name,
			Price:         input.Price,
			OriginalPrice: input.OriginalPrice,
			Category:      input.Category,
			Stock:         input.Stock,
			IsActive:      input.IsActive,
			Sales:         0,
			CreatedAt:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		}
		f.nextProductID++
		f.products = append(f.products, product)
		writeData(w, product)
	})

	mux.HandleFunc("PUT /api/admin/products", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID int64 `json:"id"`
			models.ProductUpdate
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.products {
			if f.products[i].ID == body.ID {
				body.ProductUpdate.ApplyTo(&f.products[i])
			}
		}
		writeData(w, nil)
	})

	mux.HandleFunc("DELETE /api/admin/products", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, nil)
	})

	mux.HandleFunc("GET /api/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeData(w, f.orders)
	})

	mux.HandleFunc("PATCH /api/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OrderID string             `json:"orderId"`
			Status  models.OrderStatus `json:"status"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.orders {
			if f.orders[i].ID == body.OrderID {
				f.orders[i].Status = body.Status
			}
		}
		writeData(w, nil)
	})

	return mux
}

func (f *fakeBackend) dashboardCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dashboardCalls
}

func newTestStore(t *testing.T, backend *fakeBackend) *admin.Store {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	snap, err := snapshot.OpenSQLite(filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })
	return admin.New(api.NewClient(srv.URL), snap)
}

func TestLoginLoadsInitialData(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)

	require.True(t, store.Login(context.Background(), "admin@mall.test", "hunter22"))
	require.True(t, store.LoggedIn())

	adminUser, ok := store.Admin()
	require.True(t, ok)
	assert.Equal(t, "a1", adminUser.ID)

	assert.Len(t, store.Users(), 2)
	assert.Len(t, store.Products(), 1)
	assert.Len(t, store.Orders(), 1)
	assert.Equal(t, 2, store.Dashboard().TotalUsers)
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.failAuth = true
	store := newTestStore(t, backend)

	assert.False(t, store.Login(context.Background(), "admin@mall.test", "wrong"))
	assert.False(t, store.LoggedIn())
	assert.Empty(t, store.Users())
}

func TestAddProductAppendsServerEcho(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	before := len(store.Products())
	ok := store.AddProduct(ctx, models.ProductInput{
		Name: "Beanie", Price: 14.0, Category: "apparel", Stock: 30, IsActive: true,
	})
	require.True(t, ok)

	products := store.Products()
	require.Len(t, products, before+1)
	added := products[len(products)-1]
	assert.Equal(t, int64(2), added.ID, "server-assigned id must be kept")
	assert.Equal(t, "Beanie", added.Name)
	assert.Equal(t, 0, added.Sales)
	assert.False(t, added.CreatedAt.IsZero())
}

func TestAddProductFailureLeavesCollectionUnchanged(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	backend.failCreate = true
	before := len(store.Products())
	assert.False(t, store.AddProduct(ctx, models.ProductInput{Name: "Dup", Price: 1}))
	assert.Len(t, store.Products(), before)
}

func TestUpdateProductMergesOnlySuppliedFields(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	stock := 99
	require.True(t, store.UpdateProduct(ctx, 1, models.ProductUpdate{Stock: &stock}))

	products := store.Products()
	require.Len(t, products, 1)
	assert.Equal(t, 99, products[0].Stock)
	assert.Equal(t, "Hoodie", products[0].Name, "unsupplied fields must not change")
	assert.Equal(t, 39.0, products[0].Price)
	assert.Equal(t, 120, products[0].Sales)
}

func TestDeleteProductRemovesFromCache(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	require.True(t, store.DeleteProduct(ctx, 1))
	assert.Empty(t, store.Products())
}

func TestSetUserActivePatchesExactlyOneUser(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	require.True(t, store.SetUserActive(ctx, "u2", false))

	for _, u := range store.Users() {
		switch u.ID {
		case "u1":
			assert.True(t, u.IsActive)
		case "u2":
			assert.False(t, u.IsActive)
		}
	}
}

func TestSetOrderStatusRefreshesDashboardExactlyOnce(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	calls := backend.dashboardCallCount()
	require.True(t, store.SetOrderStatus(ctx, "o1", models.OrderDelivered))

	orders := store.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderDelivered, orders[0].Status)
	assert.Equal(t, calls+1, backend.dashboardCallCount())
}

func TestSetOrderStatusFailureTriggersNoRefresh(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeFailure(w, "order not found")
	}))
	defer srv.Close()

	snap, err := snapshot.OpenSQLite(filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	defer snap.Close()
	store := admin.New(api.NewClient(srv.URL), snap)

	assert.False(t, store.SetOrderStatus(context.Background(), "o1", models.OrderDelivered))

	mu.Lock()
	defer mu.Unlock()
	// Only the PATCH itself; a failed status update must not refetch stats.
	require.Len(t, requests, 1)
	assert.Equal(t, "PATCH /api/admin/orders", requests[0])
}

func TestLoadInitialDataIsAllOrNothing(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	// Mutate the backend so a successful reload would be observable, but make
	// the products fetch fail: every slice must keep its pre-reload value.
	backend.mu.Lock()
	backend.users = append(backend.users, models.User{ID: "u3", Email: "park@mall.test", Name: "Park"})
	backend.stats.TotalUsers = 3
	backend.failProducts = true
	backend.mu.Unlock()

	assert.False(t, store.LoadInitialData(ctx))
	assert.Len(t, store.Users(), 2)
	assert.Len(t, store.Products(), 1)
	assert.Len(t, store.Orders(), 1)
	assert.Equal(t, 2, store.Dashboard().TotalUsers)
}

func TestLogoutKeepsCachedCollections(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	store.Logout(ctx)
	assert.False(t, store.LoggedIn())
	_, ok := store.Admin()
	assert.False(t, ok)

	// Deliberate trade-off: collections survive logout to avoid a refetch on
	// re-login, at the cost of possible staleness.
	assert.Len(t, store.Users(), 2)
	assert.Len(t, store.Products(), 1)
	assert.Len(t, store.Orders(), 1)
}

func TestSearchUsersDoesNotTouchCache(t *testing.T) {
	backend := newFakeBackend()
	store := newTestStore(t, backend)
	ctx := context.Background()
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))

	matched := store.SearchUsers(ctx, "Kim")
	require.Len(t, matched, 1)
	assert.Equal(t, "u1", matched[0].ID)

	assert.Len(t, store.Users(), 2, "read-through search must not replace the cache")
}

func TestSearchUsersReturnsEmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	snap, err := snapshot.OpenSQLite(filepath.Join(t.TempDir(), "snap.db"))
	require.NoError(t, err)
	defer snap.Close()

	store := admin.New(api.NewClient(srv.URL), snap)
	assert.Empty(t, store.SearchUsers(context.Background(), "anything"))
}

func TestSnapshotRoundTripExcludesDashboard(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "snap.db")
	ctx := context.Background()

	snap, err := snapshot.OpenSQLite(path)
	require.NoError(t, err)
	store := admin.New(api.NewClient(srv.URL), snap)
	require.True(t, store.Login(ctx, "admin@mall.test", "hunter22"))
	require.NotZero(t, store.Dashboard().TotalUsers)
	require.NoError(t, snap.Close())

	reopened, err := snapshot.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	restored := admin.New(api.NewClient(srv.URL), reopened)
	assert.True(t, restored.LoggedIn())
	adminUser, ok := restored.Admin()
	require.True(t, ok)
	assert.Equal(t, "a1", adminUser.ID)
	assert.Len(t, restored.Users(), 2)
	assert.Len(t, restored.Products(), 1)
	assert.Len(t, restored.Orders(), 1)
	// Stats are always refetched, never restored.
	assert.Zero(t, restored.Dashboard().TotalUsers)
}
