package store

import (
	"context"
	"errors"

	"pequenoestilo/backend/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

// Repository owns the product catalog and the order ledger. Every
// mutation is written through to the underlying key-value store in full
// before the call returns.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// AdjustStock applies delta to the product's stock count, clamping
	// the result at zero. A sale that exceeds available stock floors at
	// zero rather than failing.
	AdjustStock(ctx context.Context, productID string, delta int) error

	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	// CreateOrder assigns the next sequential id (count of existing
	// orders plus one) and persists the order as given.
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int, status string) (*domain.Order, error)
}
