package models

import (
	"time"
)

// User is the shared account shape. The identity store owns the profile and
// verification flags; the admin store's cached user collection additionally
// cares about IsActive.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	JoinedAt      time.Time `json:"joinedAt"`
	EmailVerified bool      `json:"emailVerified"`
	PhoneVerified bool      `json:"phoneVerified"`
	IsActive      bool      `json:"isActive"`
}

// AdminUser is the authenticated administrator. It is only ever decoded from
// the API's auth response, never built locally.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type VerificationMethod string

const (
	VerifyNone  VerificationMethod = ""
	VerifyEmail VerificationMethod = "email"
	VerifyPhone VerificationMethod = "phone"
)

// Verification tracks two-factor verification progress for one session.
// Flags are independently settable; the UI drives the flow, not the record.
type Verification struct {
	Method        VerificationMethod `json:"method"`
	EmailSent     bool               `json:"emailSent"`
	PhoneSent     bool               `json:"phoneSent"`
	EmailVerified bool               `json:"emailVerified"`
	PhoneVerified bool               `json:"phoneVerified"`
}

// DefaultVerification is the initial record: no method selected, all flags off.
func DefaultVerification() Verification {
	return Verification{Method: VerifyNone}
}

type OrderStatus string

// Order lifecycle: pending -> paid -> shipping -> delivered, with cancelled
// reachable from any non-terminal state. The stores do not enforce the
// transition graph; callers are expected to respect it.
const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipping  OrderStatus = "shipping"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is a line item. Product name and price are denormalized at order
// creation time and are not kept in sync with later product edits.
type OrderItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	UserName    string      `json:"userName"`
	UserEmail   string      `json:"userEmail"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Address     string      `json:"address"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Product as stored server-side. ID, Sales and CreatedAt are assigned by the
// server; the client only ever learns them from response payloads.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice,omitempty"`
	Category      string    `json:"category"`
	Stock         int       `json:"stock"`
	IsActive      bool      `json:"isActive"`
	Sales         int       `json:"sales"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ProductInput carries the caller-settable fields for product creation.
type ProductInput struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Category      string  `json:"category"`
	Stock         int     `json:"stock"`
	IsActive      bool    `json:"isActive"`
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name          *string  `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// ApplyTo shallow-merges the set fields into p.
func (u ProductUpdate) ApplyTo(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.OriginalPrice != nil {
		p.OriginalPrice = *u.OriginalPrice
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}

// ProfileUpdate is a partial profile edit; nil fields are left unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ApplyTo shallow-merges the set fields into u.
func (p ProfileUpdate) ApplyTo(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}

// DashboardStats is the server-computed aggregate for the admin dashboard.
// The client never derives it from the cached collections; it is replaced
// wholesale on each refetch.
type DashboardStats struct {
	TotalUsers     int                 `json:"totalUsers"`
	TotalOrders    int                 `json:"totalOrders"`
	TotalRevenue   float64             `json:"totalRevenue"`
	UserGrowth     float64             `json:"userGrowth"`
	OrderGrowth    float64             `json:"orderGrowth"`
	RevenueGrowth  float64             `json:"revenueGrowth"`
	OrdersByStatus map[OrderStatus]int `json:"ordersByStatus"`
	BestSelling    []Product           `json:"bestSelling"`
	LowStock       []Product           `json:"lowStock"`
}
