// Package boutique implements store.Repository as an in-memory snapshot
// of the catalog and order ledger, written through in full to a kv.Store
// slot after every mutation.
package boutique

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pequenoestilo/backend/internal/domain"
	"pequenoestilo/backend/internal/store"
	"pequenoestilo/backend/internal/store/kv"
)

const (
	productsSlot = "pequeno_estilo_products"
	ordersSlot   = "pequeno_estilo_orders"
)

type Store struct {
	mu       sync.RWMutex
	kv       kv.Store
	products []domain.Product
	orders   []domain.Order
}

// Open loads both slots from the backing store. An absent product slot
// means a first run: the three default catalog entries are seeded and
// persisted immediately. An absent order slot starts an empty ledger.
func Open(ctx context.Context, backend kv.Store) (*Store, error) {
	s := &Store{kv: backend}

	raw, err := backend.Get(ctx, productsSlot)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		s.products = seedProducts()
		if err := s.persistProducts(ctx); err != nil {
			return nil, fmt.Errorf("seed products: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load products: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
	}

	raw, err = backend.Get(ctx, ordersSlot)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		s.orders = []domain.Order{}
	case err != nil:
		return nil, fmt.Errorf("load orders: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.orders); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
	}

	return s, nil
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "1", Name: "Macacão Plush Ursinho", Description: "Tecido macio e antialérgico",
			Size: "M", Category: "Bebê",
			Cost: decimal.RequireFromString("45.00"), Margin: decimal.NewFromInt(60),
			SalePrice: decimal.RequireFromString("112.50"), Stock: 15,
		},
		{
			ID: "2", Name: "Conjunto Moletom Dino", Description: "Capuz com detalhes de dinossauro",
			Size: "4", Category: "Menino",
			Cost: decimal.RequireFromString("65.00"), Margin: decimal.NewFromInt(55),
			SalePrice: decimal.RequireFromString("144.44"), Stock: 8,
		},
		{
			ID: "3", Name: "Vestido Floral Verão", Description: "Algodão leve com estampa exclusiva",
			Size: "2", Category: "Menina",
			Cost: decimal.RequireFromString("55.00"), Margin: decimal.NewFromInt(65),
			SalePrice: decimal.RequireFromString("157.14"), Stock: 4,
		},
	}
}

// persistProducts must be called with s.mu held (or before the store is shared).
func (s *Store) persistProducts(ctx context.Context) error {
	payload, err := json.Marshal(s.products)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, productsSlot, payload)
}

// persistOrders must be called with s.mu held.
func (s *Store) persistOrders(ctx context.Context) error {
	payload, err := json.Marshal(s.orders)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, ordersSlot, payload)
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.ID == product.ID {
			return nil, fmt.Errorf("%w: product id %s already exists", store.ErrValidation, product.ID)
		}
	}

	s.products = append(s.products, product)
	if err := s.persistProducts(ctx); err != nil {
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID == product.ID {
			s.products[i] = product
			if err := s.persistProducts(ctx); err != nil {
				return nil, err
			}
			updated := product
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}

// DeleteProduct removes the catalog entry. Orders referencing it keep
// their name/price snapshots and are intentionally not checked.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return s.persistProducts(ctx)
		}
	}
	return store.ErrNotFound
}

func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.products {
		if p.ID == productID {
			next := p.Stock + delta
			if next < 0 {
				next = 0
			}
			s.products[i].Stock = next
			return s.persistProducts(ctx)
		}
	}
	return store.ErrNotFound
}

// ListOrders returns the ledger newest first.
func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		orders = append(orders, s.orders[i])
	}
	return orders, nil
}

func (s *Store) GetOrder(_ context.Context, id int) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = len(s.orders) + 1
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}

	s.orders = append(s.orders, order)
	if err := s.persistOrders(ctx); err != nil {
		return nil, err
	}
	created := order
	return &created, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int, status string) (*domain.Order, error) {
	if !domain.ValidStatus(status) {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.orders {
		if o.ID == id {
			s.orders[i].Status = status
			if err := s.persistOrders(ctx); err != nil {
				return nil, err
			}
			updated := s.orders[i]
			return &updated, nil
		}
	}
	return nil, store.ErrNotFound
}
