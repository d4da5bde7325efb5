package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Cost holds the weighted-average unit cost
// and SalePrice is always re-derived from Cost and Margin; it is never
// accepted from clients.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Size        string          `json:"size"`
	Category    string          `json:"category"`
	Cost        decimal.Decimal `json:"cost"`
	Margin      decimal.Decimal `json:"margin"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Stock       int             `json:"stock"`
}

type ProductCreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Size        string          `json:"size"`
	Category    string          `json:"category"`
	Cost        decimal.Decimal `json:"cost"`
	Margin      decimal.Decimal `json:"margin"`
	Stock       int             `json:"stock"`
}

type ProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Size        *string          `json:"size,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Margin      *decimal.Decimal `json:"margin,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

// PurchaseRequest registers a restock of an existing product and feeds
// the weighted-average cost update.
type PurchaseRequest struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderItem snapshots the product name and unit price at sale time;
// later catalog edits do not touch existing orders.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID                 int             `json:"id"`
	ClientName         string          `json:"clientName"`
	ClientEmail        string          `json:"clientEmail"`
	ClientCPF          string          `json:"clientCpf"`
	ClientPhone        string          `json:"clientPhone"`
	Date               time.Time       `json:"date"`
	Items              []OrderItem     `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Total              decimal.Decimal `json:"total"`
	PaymentMethod      string          `json:"paymentMethod"`
	Status             string          `json:"status"`
	Observations       string          `json:"observations,omitempty"`
}

type OrderItemDraft struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderCreateRequest struct {
	ClientName         string           `json:"clientName"`
	ClientEmail        string           `json:"clientEmail"`
	ClientCPF          string           `json:"clientCpf"`
	ClientPhone        string           `json:"clientPhone"`
	Items              []OrderItemDraft `json:"items"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage"`
	PaymentMethod      string           `json:"paymentMethod"`
	Observations       string           `json:"observations"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

// CustomerSummary is derived from the order ledger, never stored. Orders
// are grouped by CPF when present, otherwise by client name, so two
// customers sharing a name and lacking a CPF collapse into one row.
type CustomerSummary struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	CPF         string          `json:"cpf"`
	Phone       string          `json:"phone"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	QuotesCount int             `json:"quotesCount"`
}

type OrderPoint struct {
	OrderID int             `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

type DashboardSummary struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	OrderCount    int             `json:"orderCount"`
	PendingCount  int             `json:"pendingCount"`
	LowStockCount int             `json:"lowStockCount"`
	LowStock      []Product       `json:"lowStock"`
	RecentOrders  []OrderPoint    `json:"recentOrders"`
}

type IntroRequest struct {
	ClientName string `json:"clientName"`
	ItemsCount int    `json:"itemsCount"`
}

type IntroResponse struct {
	Text string `json:"text"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// Status values use the Portuguese wire form the frontend displays.
const (
	StatusPending   = "Pendente"
	StatusSold      = "Vendido"
	StatusCancelled = "Cancelado"
)

const (
	PaymentPix    = "Pix"
	PaymentCredit = "Credito"
	PaymentDebit  = "Debito"
	PaymentCash   = "Dinheiro"
)

// ValidStatus reports whether s is one of the three order states.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusSold || s == StatusCancelled
}

// ValidPaymentMethod reports whether m belongs to the fixed payment set.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentPix, PaymentCredit, PaymentDebit, PaymentCash:
		return true
	}
	return false
}

// LowStockThreshold marks products needing restock on the dashboard.
const LowStockThreshold = 5
