package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pequenoestilo/backend/internal/domain"
	"pequenoestilo/backend/internal/notes"
	"pequenoestilo/backend/internal/pdf"
	"pequenoestilo/backend/internal/pricing"
	"pequenoestilo/backend/internal/store"
	"pequenoestilo/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo  store.Repository
	intro *notes.Generator
	log   *logrus.Logger
}

func New(repo store.Repository, intro *notes.Generator, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		repo:  repo,
		intro: intro,
		log:   log,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Size = strings.TrimSpace(req.Size)
	req.Category = strings.TrimSpace(req.Category)

	if req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name required", store.ErrValidation)
	}
	if req.Cost.IsNegative() || req.Margin.IsNegative() || req.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: cost, margin and stock must not be negative", store.ErrValidation)
	}
	if req.Size == "" {
		req.Size = "G"
	}
	if req.Category == "" {
		req.Category = "Geral"
	}

	cost := req.Cost.Round(2)
	product := domain.Product{
		ID:          xid.New("PROD"),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Size:        req.Size,
		Category:    req.Category,
		Cost:        cost,
		Margin:      req.Margin,
		SalePrice:   pricing.SalePrice(cost, req.Margin),
		Stock:       req.Stock,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.log.WithFields(logrus.Fields{
		"module":  "service",
		"product": created.ID,
		"stock":   created.Stock,
	}).Info("product created")

	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: product name required", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Size != nil {
		updated.Size = strings.TrimSpace(*req.Size)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: cost must not be negative", store.ErrValidation)
		}
		updated.Cost = req.Cost.Round(2)
	}
	if req.Margin != nil {
		if req.Margin.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: margin must not be negative", store.ErrValidation)
		}
		updated.Margin = *req.Margin
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock must not be negative", store.ErrValidation)
		}
		updated.Stock = *req.Stock
	}

	// The sale price is derived state; recompute on every edit path so it
	// can never drift from cost and margin.
	updated.SalePrice = pricing.SalePrice(updated.Cost, updated.Margin)

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"module": "service", "product": id}).Info("product deleted")
	return nil
}

// RegisterPurchase folds a supplier purchase into the product: stock
// grows by the purchased quantity and the cost becomes the quantity-
// weighted average. The sale price follows the new cost.
func (s *Service) RegisterPurchase(ctx context.Context, productID string, req domain.PurchaseRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}

	newStock, newCost, err := pricing.ApplyPurchase(existing.Stock, existing.Cost, req.Quantity, req.UnitPrice)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: %s", store.ErrValidation, err)
	}

	updated := *existing
	updated.Stock = newStock
	updated.Cost = newCost
	updated.SalePrice = pricing.SalePrice(newCost, updated.Margin)

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.log.WithFields(logrus.Fields{
		"module":  "service",
		"product": saved.ID,
		"qty":     req.Quantity,
		"cost":    saved.Cost,
	}).Info("purchase registered")

	return *saved, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id int) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

// CreateOrder validates the draft, snapshots product name and sale price
// per line item, computes the totals once, persists the order as Pendente
// and decrements stock for every line item. A pending order already
// consumes stock; only cancellation releases it.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.ClientName == "" {
		return domain.Order{}, fmt.Errorf("%w: client name required", store.ErrValidation)
	}
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order needs at least one item", store.ErrValidation)
	}
	if req.DiscountPercentage.IsNegative() || req.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Order{}, fmt.Errorf("%w: discount must be between 0 and 100", store.ErrValidation)
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentPix
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return domain.Order{}, fmt.Errorf("%w: unsupported payment method %s", store.ErrValidation, req.PaymentMethod)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	lineAmounts := make([]decimal.Decimal, 0, len(req.Items))
	for _, draft := range req.Items {
		if draft.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: item quantity must be positive", store.ErrValidation)
		}
		product, err := s.repo.GetProduct(ctx, draft.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: unknown product %s", store.ErrValidation, draft.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    draft.Quantity,
			UnitPrice:   product.SalePrice,
		})
		lineAmounts = append(lineAmounts, product.SalePrice.Mul(decimal.NewFromInt(int64(draft.Quantity))))
	}

	subtotal, total := pricing.OrderTotals(lineAmounts, req.DiscountPercentage)

	order := domain.Order{
		ClientName:         req.ClientName,
		ClientEmail:        strings.TrimSpace(req.ClientEmail),
		ClientCPF:          strings.TrimSpace(req.ClientCPF),
		ClientPhone:        strings.TrimSpace(req.ClientPhone),
		Items:              items,
		Subtotal:           subtotal,
		DiscountPercentage: req.DiscountPercentage,
		Total:              total,
		PaymentMethod:      req.PaymentMethod,
		Status:             domain.StatusPending,
		Observations:       req.Observations,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	s.adjustForItems(ctx, created.Items, -1)

	s.log.WithFields(logrus.Fields{
		"module": "service",
		"order":  created.ID,
		"total":  created.Total,
		"client": created.ClientName,
	}).Info("order created")

	return *created, nil
}

// UpdateOrderStatus applies the reconciliation rule before recording the
// new status: any transition into Cancelado restores stock, any
// transition out of Cancelado consumes it again, and Pendente<->Vendido
// leaves stock untouched. The status is recorded regardless of the stock
// adjustment outcome; adjustments against deleted products are logged
// and dropped.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int, newStatus string) (domain.Order, error) {
	if !domain.ValidStatus(newStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %s", store.ErrValidation, newStatus)
	}

	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == newStatus {
		return *order, nil
	}

	switch {
	case newStatus == domain.StatusCancelled:
		s.adjustForItems(ctx, order.Items, +1)
	case order.Status == domain.StatusCancelled:
		s.adjustForItems(ctx, order.Items, -1)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, newStatus)
	if err != nil {
		return domain.Order{}, err
	}

	s.log.WithFields(logrus.Fields{
		"module": "service",
		"order":  id,
		"from":   order.Status,
		"to":     newStatus,
	}).Info("order status changed")

	return *updated, nil
}

// adjustForItems applies sign*quantity to every line item's product.
// Stock clamping lives in the repository; the only possible failure is a
// product deleted after the sale, which must not block the order.
func (s *Service) adjustForItems(ctx context.Context, items []domain.OrderItem, sign int) {
	for _, item := range items {
		if err := s.repo.AdjustStock(ctx, item.ProductID, sign*item.Quantity); err != nil {
			s.log.WithFields(logrus.Fields{
				"module":  "service",
				"product": item.ProductID,
			}).WithError(err).Warn("stock adjustment skipped")
		}
	}
}

// Customers folds the ledger into per-customer summaries. Orders are
// grouped by CPF when present, else by client name; identity fields come
// from the first order encountered and totals include every status,
// Cancelado included (observed policy, kept as is).
func (s *Service) Customers(ctx context.Context) ([]domain.CustomerSummary, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	summaries := make([]domain.CustomerSummary, 0, len(orders))
	for _, order := range orders {
		key := order.ClientCPF
		if key == "" {
			key = order.ClientName
		}
		if pos, ok := index[key]; ok {
			summaries[pos].TotalSpent = summaries[pos].TotalSpent.Add(order.Total)
			summaries[pos].QuotesCount++
			continue
		}
		index[key] = len(summaries)
		summaries = append(summaries, domain.CustomerSummary{
			Name:        order.ClientName,
			Email:       order.ClientEmail,
			CPF:         order.ClientCPF,
			Phone:       order.ClientPhone,
			TotalSpent:  order.Total,
			QuotesCount: 1,
		})
	}
	return summaries, nil
}

// Dashboard summarizes the shop: revenue counts only Vendido orders,
// while the order and pending counters span the whole ledger.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	summary := domain.DashboardSummary{
		TotalSales:   decimal.Zero,
		OrderCount:   len(orders),
		LowStock:     []domain.Product{},
		RecentOrders: []domain.OrderPoint{},
	}

	for _, order := range orders {
		if order.Status == domain.StatusSold {
			summary.TotalSales = summary.TotalSales.Add(order.Total)
		}
		if order.Status == domain.StatusPending {
			summary.PendingCount++
		}
	}

	for _, product := range products {
		if product.Stock < domain.LowStockThreshold {
			summary.LowStockCount++
			if len(summary.LowStock) < 4 {
				summary.LowStock = append(summary.LowStock, product)
			}
		}
	}

	// Up to the seven most recent orders, oldest of those first, the way
	// the movement chart reads.
	recent := orders
	if len(recent) > 7 {
		recent = recent[:7]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		summary.RecentOrders = append(summary.RecentOrders, domain.OrderPoint{
			OrderID: recent[i].ID,
			Total:   recent[i].Total,
		})
	}

	return summary, nil
}

// OrderDocument renders the printable PDF for an order. Rendering reads
// the order snapshot only; a failure here never touches persisted state.
func (s *Service) OrderDocument(ctx context.Context, id int) (string, []byte, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return "", nil, err
	}
	payload, err := pdf.Render(*order)
	if err != nil {
		return "", nil, fmt.Errorf("render order %d: %w", id, err)
	}
	return pdf.Filename(*order), payload, nil
}

// OrderIntro produces the advisory introduction text for an order draft.
// The generator degrades to fixed fallback copy on its own; the only
// caller error is a missing client name.
func (s *Service) OrderIntro(ctx context.Context, req domain.IntroRequest) (domain.IntroResponse, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return domain.IntroResponse{}, fmt.Errorf("%w: client name required", store.ErrValidation)
	}
	if s.intro == nil {
		return domain.IntroResponse{Text: notes.FallbackPlain}, nil
	}
	return domain.IntroResponse{Text: s.intro.Intro(ctx, name, req.ItemsCount)}, nil
}
