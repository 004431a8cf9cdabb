package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dhfrrkqt/shoppingmall/internal/admin"
	"github.com/dhfrrkqt/shoppingmall/internal/api"
	"github.com/dhfrrkqt/shoppingmall/internal/config"
	"github.com/dhfrrkqt/shoppingmall/internal/identity"
	"github.com/dhfrrkqt/shoppingmall/internal/models"
	"github.com/dhfrrkqt/shoppingmall/internal/snapshot"
)

const usage = `usage: shopctl <command> [flags]

account commands (local demo auth, no API access):
  login              demo login (-email, -password)
  signup             register a demo account
  whoami             show the current account
  logout             clear the current account

admin commands (require ADMIN_EMAIL / ADMIN_PASSWORD):
  dashboard          show dashboard stats
  users              list cached users
  search-users       search users server-side
  set-user-status    enable/disable a user account
  products           list cached products
  add-product        create a product
  update-product     update product fields
  delete-product     delete a product
  orders             list cached orders
  set-order-status   move an order to a new status
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	snap, err := openSnapshot(cfg)
	if err != nil {
		slog.Error("Failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer snap.Close()

	ctx := context.Background()
	command, args := os.Args[1], os.Args[2:]

	switch command {
	case "login", "signup", "whoami", "logout":
		accounts := identity.New(snap,
			identity.WithLogger(logger),
			identity.WithLoginDelay(cfg.LoginDelay),
		)
		err = accountDispatch(ctx, accounts, command, args)
	case "dashboard", "users", "search-users", "set-user-status",
		"products", "add-product", "update-product", "delete-product",
		"orders", "set-order-status":
		client := api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.HTTPTimeout))
		store := admin.New(client, snap, admin.WithLogger(logger))
		if !store.Login(ctx, cfg.AdminEmail, cfg.AdminPassword) {
			slog.Error("Admin login failed; check ADMIN_EMAIL and ADMIN_PASSWORD")
			os.Exit(1)
		}
		err = dispatch(ctx, store, command, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func accountDispatch(ctx context.Context, store *identity.Store, command string, args []string) error {
	switch command {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "password (6+ characters)")
		fs.Parse(args)
		if !store.Login(ctx, *email, *password) {
			return fmt.Errorf("login rejected")
		}
		user, _ := store.CurrentUser()
		fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
		return nil

	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		name := fs.String("name", "", "display name")
		phone := fs.String("phone", "", "phone number")
		address := fs.String("address", "", "delivery address")
		fs.Parse(args)
		if *email == "" || *name == "" {
			return fmt.Errorf("-email and -name are required")
		}
		store.Signup(ctx, identity.SignupInput{
			Email: *email, Name: *name, Phone: *phone, Address: *address,
		})
		user, _ := store.CurrentUser()
		fmt.Printf("account %s created for %s\n", user.ID, user.Email)
		return nil

	case "whoami":
		user, loggedIn := store.CurrentUser()
		if !loggedIn {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s <%s>  joined %s  email-verified=%v phone-verified=%v\n",
			user.Name, user.Email, user.JoinedAt.Format("2006-01-02"), user.EmailVerified, user.PhoneVerified)
		return nil

	case "logout":
		store.Logout(ctx)
		fmt.Println("logged out")
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

// openSnapshot prefers Redis when configured and falls back to SQLite.
func openSnapshot(cfg *config.Config) (snapshot.Store, error) {
	if cfg.RedisAddr != "" {
		snap, err := snapshot.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			return snap, nil
		}
		slog.Warn("Redis unavailable, falling back to SQLite snapshots", "error", err)
	}
	return snapshot.OpenSQLite(cfg.SnapshotPath)
}

func dispatch(ctx context.Context, store *admin.Store, command string, args []string) error {
	switch command {
	case "dashboard":
		if !store.RefreshDashboard(ctx) {
			return fmt.Errorf("dashboard refresh failed")
		}
		stats := store.Dashboard()
		fmt.Printf("users: %d  orders: %d  revenue: %.2f\n", stats.TotalUsers, stats.TotalOrders, stats.TotalRevenue)
		fmt.Printf("growth: users %+.1f%%  orders %+.1f%%  revenue %+.1f%%\n", stats.UserGrowth, stats.OrderGrowth, stats.RevenueGrowth)
		for status, count := range stats.OrdersByStatus {
			fmt.Printf("  %-10s %d\n", status, count)
		}
		return nil

	case "users":
		for _, u := range store.Users() {
			fmt.Printf("%-24s %-30s active=%v\n", u.ID, u.Email, u.IsActive)
		}
		return nil

	case "search-users":
		fs := flag.NewFlagSet("search-users", flag.ExitOnError)
		query := fs.String("query", "", "search query")
		fs.Parse(args)
		for _, u := range store.SearchUsers(ctx, *query) {
			fmt.Printf("%-24s %-30s %s\n", u.ID, u.Email, u.Name)
		}
		return nil

	case "set-user-status":
		fs := flag.NewFlagSet("set-user-status", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		active := fs.Bool("active", true, "target active state")
		fs.Parse(args)
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		if !store.SetUserActive(ctx, *id, *active) {
			return fmt.Errorf("user status update failed")
		}
		fmt.Printf("user %s active=%v\n", *id, *active)
		return nil

	case "products":
		for _, p := range store.Products() {
			fmt.Printf("%-8d %-30s %8.2f  stock=%d sales=%d active=%v\n", p.ID, p.Name, p.Price, p.Stock, p.Sales, p.IsActive)
		}
		return nil

	case "add-product":
		fs := flag.NewFlagSet("add-product", flag.ExitOnError)
		name := fs.String("name", "", "product name")
		price := fs.Float64("price", 0, "price")
		original := fs.Float64("original-price", 0, "original price before discount")
		category := fs.String("category", "", "category")
		stock := fs.Int("stock", 0, "stock count")
		active := fs.Bool("active", true, "listed for sale")
		fs.Parse(args)
		if *name == "" || *price <= 0 {
			return fmt.Errorf("-name and a positive -price are required")
		}
		input := models.ProductInput{
			Name:          *name,
			Price:         *price,
			OriginalPrice: *original,
			Category:      *category,
			Stock:         *stock,
			IsActive:      *active,
		}
		if !store.AddProduct(ctx, input) {
			return fmt.Errorf("product creation failed")
		}
		fmt.Printf("product %q created\n", *name)
		return nil

	case "update-product":
		fs := flag.NewFlagSet("update-product", flag.ExitOnError)
		id := fs.Int64("id", 0, "product id")
		name := fs.String("name", "", "product name")
		price := fs.Float64("price", 0, "price")
		category := fs.String("category", "", "category")
		stock := fs.Int("stock", 0, "stock count")
		active := fs.Bool("active", true, "listed for sale")
		fs.Parse(args)
		if *id == 0 {
			return fmt.Errorf("-id is required")
		}
		// Only flags that were actually passed become part of the update.
		var update models.ProductUpdate
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				update.Name = name
			case "price":
				update.Price = price
			case "category":
				update.Category = category
			case "stock":
				update.Stock = stock
			case "active":
				update.IsActive = active
			}
		})
		if !store.UpdateProduct(ctx, *id, update) {
			return fmt.Errorf("product update failed")
		}
		fmt.Printf("product %d updated\n", *id)
		return nil

	case "delete-product":
		fs := flag.NewFlagSet("delete-product", flag.ExitOnError)
		id := fs.Int64("id", 0, "product id")
		fs.Parse(args)
		if *id == 0 {
			return fmt.Errorf("-id is required")
		}
		if !store.DeleteProduct(ctx, *id) {
			return fmt.Errorf("product deletion failed")
		}
		fmt.Printf("product %d deleted\n", *id)
		return nil

	case "orders":
		for _, o := range store.Orders() {
			fmt.Printf("%-16s %-10s %8.2f  %s\n", o.ID, o.Status, o.TotalAmount, o.UserEmail)
		}
		return nil

	case "set-order-status":
		fs := flag.NewFlagSet("set-order-status", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		status := fs.String("status", "", "new status (pending|paid|shipping|delivered|cancelled)")
		fs.Parse(args)
		if *id == "" || *status == "" {
			return fmt.Errorf("-id and -status are required")
		}
		if !store.SetOrderStatus(ctx, *id, models.OrderStatus(*status)) {
			return fmt.Errorf("order status update failed")
		}
		fmt.Printf("order %s -> %s\n", *id, *status)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
