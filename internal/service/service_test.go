package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pequenoestilo/backend/internal/domain"
	"pequenoestilo/backend/internal/store"
	"pequenoestilo/backend/internal/store/boutique"
	"pequenoestilo/backend/internal/store/kv"
)

func newTestService(t *testing.T) (context.Context, *Service) {
	t.Helper()

	ctx := context.Background()
	repo, err := boutique.Open(ctx, kv.NewMemoryStore())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return ctx, New(repo, nil, log)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateProductDerivesSalePrice(t *testing.T) {
	ctx, svc := newTestService(t)

	created, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:   "Body Manga Longa",
		Cost:   dec("45.00"),
		Margin: decimal.NewFromInt(60),
		Stock:  10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !created.SalePrice.Equal(dec("112.50")) {
		t.Fatalf("sale price = %s, want 112.50", created.SalePrice)
	}
	if created.Size != "G" || created.Category != "Geral" {
		t.Fatalf("defaults = %q/%q, want G/Geral", created.Size, created.Category)
	}
	if created.ID == "" {
		t.Fatal("expected generated product id")
	}
}

func TestCreateProductRejectsBadInput(t *testing.T) {
	ctx, svc := newTestService(t)

	cases := []domain.ProductCreateRequest{
		{Name: "  ", Cost: dec("10"), Margin: dec("50")},
		{Name: "Meia", Cost: dec("-1"), Margin: dec("50")},
		{Name: "Meia", Cost: dec("10"), Margin: dec("-5")},
		{Name: "Meia", Cost: dec("10"), Margin: dec("50"), Stock: -3},
	}
	for i, req := range cases {
		if _, err := svc.CreateProduct(ctx, req); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
}

func TestUpdateProductRecomputesSalePrice(t *testing.T) {
	ctx, svc := newTestService(t)

	newMargin := decimal.NewFromInt(50)
	updated, err := svc.UpdateProduct(ctx, "1", domain.ProductUpdateRequest{Margin: &newMargin})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	// 45.00 at 50% margin.
	if !updated.SalePrice.Equal(dec("90.00")) {
		t.Fatalf("sale price = %s, want 90.00", updated.SalePrice)
	}

	newCost := dec("50.00")
	updated, err = svc.UpdateProduct(ctx, "1", domain.ProductUpdateRequest{Cost: &newCost})
	if err != nil {
		t.Fatalf("update product cost: %v", err)
	}
	if !updated.SalePrice.Equal(dec("100.00")) {
		t.Fatalf("sale price = %s, want 100.00", updated.SalePrice)
	}
}

func TestRegisterPurchaseWeightedAverage(t *testing.T) {
	ctx, svc := newTestService(t)

	created, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:   "Tiara Laço",
		Cost:   dec("10.00"),
		Margin: decimal.NewFromInt(50),
		Stock:  10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	after, err := svc.RegisterPurchase(ctx, created.ID, domain.PurchaseRequest{
		Quantity:  10,
		UnitPrice: dec("20.00"),
	})
	if err != nil {
		t.Fatalf("register purchase: %v", err)
	}
	if after.Stock != 20 {
		t.Fatalf("stock = %d, want 20", after.Stock)
	}
	if !after.Cost.Equal(dec("15.00")) {
		t.Fatalf("cost = %s, want 15.00", after.Cost)
	}
	if !after.SalePrice.Equal(dec("30.00")) {
		t.Fatalf("sale price = %s, want 30.00", after.SalePrice)
	}
}

func TestRegisterPurchaseRejectsNonPositive(t *testing.T) {
	ctx, svc := newTestService(t)

	if _, err := svc.RegisterPurchase(ctx, "1", domain.PurchaseRequest{Quantity: 0, UnitPrice: dec("5.00")}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := svc.RegisterPurchase(ctx, "nope", domain.PurchaseRequest{Quantity: 1, UnitPrice: dec("5.00")}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateOrderDecrementsStockAndSnapshots(t *testing.T) {
	ctx, svc := newTestService(t)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Ana Souza",
		Items:      []domain.OrderItemDraft{{ProductID: "1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != 1 {
		t.Fatalf("order id = %d, want 1", order.ID)
	}
	if order.Status != domain.StatusPending {
		t.Fatalf("status = %s, want %s", order.Status, domain.StatusPending)
	}
	if order.PaymentMethod != domain.PaymentPix {
		t.Fatalf("payment = %s, want default Pix", order.PaymentMethod)
	}
	if order.Items[0].ProductName != "Macacão Plush Ursinho" || !order.Items[0].UnitPrice.Equal(dec("112.50")) {
		t.Fatalf("item snapshot = %q @ %s", order.Items[0].ProductName, order.Items[0].UnitPrice)
	}
	if !order.Subtotal.Equal(dec("225.00")) || !order.Total.Equal(dec("225.00")) {
		t.Fatalf("totals = %s/%s, want 225.00/225.00", order.Subtotal, order.Total)
	}

	product, err := svc.repo.GetProduct(ctx, "1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 13 {
		t.Fatalf("stock after order = %d, want 13", product.Stock)
	}
}

func TestCreateOrderAppliesDiscount(t *testing.T) {
	ctx, svc := newTestService(t)

	created, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:   "Casaco Tricot",
		Cost:   dec("100.00"),
		Margin: decimal.Zero,
		Stock:  5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName:         "Bruna Lima",
		Items:              []domain.OrderItemDraft{{ProductID: created.ID, Quantity: 1}},
		DiscountPercentage: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if !order.Subtotal.Equal(dec("100.00")) {
		t.Fatalf("subtotal = %s, want 100.00", order.Subtotal)
	}
	if !order.Total.Equal(dec("90.00")) {
		t.Fatalf("total = %s, want 90.00", order.Total)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	ctx, svc := newTestService(t)

	cases := []domain.OrderCreateRequest{
		{ClientName: " ", Items: []domain.OrderItemDraft{{ProductID: "1", Quantity: 1}}},
		{ClientName: "Ana"},
		{ClientName: "Ana", Items: []domain.OrderItemDraft{{ProductID: "1", Quantity: 0}}},
		{ClientName: "Ana", Items: []domain.OrderItemDraft{{ProductID: "ghost", Quantity: 1}}},
		{ClientName: "Ana", Items: []domain.OrderItemDraft{{ProductID: "1", Quantity: 1}}, DiscountPercentage: decimal.NewFromInt(150)},
		{ClientName: "Ana", Items: []domain.OrderItemDraft{{ProductID: "1", Quantity: 1}}, PaymentMethod: "Boleto"},
	}
	for i, req := range cases {
		if _, err := svc.CreateOrder(ctx, req); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("case %d: err = %v, want ErrValidation", i, err)
		}
	}

	// Failed drafts must not touch stock.
	product, err := svc.repo.GetProduct(ctx, "1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 15 {
		t.Fatalf("stock = %d, want untouched 15", product.Stock)
	}
}

func TestStatusReconciliationCycle(t *testing.T) {
	ctx, svc := newTestService(t)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Carla Dias",
		Items:      []domain.OrderItemDraft{{ProductID: "1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	stockOf := func(id string) int {
		t.Helper()
		product, err := svc.repo.GetProduct(ctx, id)
		if err != nil {
			t.Fatalf("get product: %v", err)
		}
		return product.Stock
	}

	if got := stockOf("1"); got != 13 {
		t.Fatalf("stock after create = %d, want 13", got)
	}

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if got := stockOf("1"); got != 15 {
		t.Fatalf("stock after cancel = %d, want 15", got)
	}

	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusPending); err != nil {
		t.Fatalf("reopen order: %v", err)
	}
	if got := stockOf("1"); got != 13 {
		t.Fatalf("stock after reopen = %d, want 13", got)
	}

	// Pendente and Vendido are both stock-consuming states.
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusSold); err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if got := stockOf("1"); got != 13 {
		t.Fatalf("stock after sale = %d, want unchanged 13", got)
	}

	// Repeating the current status is a no-op.
	if _, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusSold); err != nil {
		t.Fatalf("repeat status: %v", err)
	}
	if got := stockOf("1"); got != 13 {
		t.Fatalf("stock after repeated status = %d, want 13", got)
	}
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	ctx, svc := newTestService(t)

	if _, err := svc.UpdateOrderStatus(ctx, 99, domain.StatusSold); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, 1, "Enviado"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStatusChangeSurvivesDeletedProduct(t *testing.T) {
	ctx, svc := newTestService(t)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Duda Reis",
		Items:      []domain.OrderItemDraft{{ProductID: "2", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := svc.DeleteProduct(ctx, "2"); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	if err != nil {
		t.Fatalf("cancel order with deleted product: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want %s", updated.Status, domain.StatusCancelled)
	}
}

func TestCustomersAggregatesByCPF(t *testing.T) {
	ctx, svc := newTestService(t)

	fifty, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Pijama Estrelas", Cost: dec("50.00"), Margin: decimal.Zero, Stock: 10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	thirty, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name: "Babador Bordado", Cost: dec("30.00"), Margin: decimal.Zero, Stock: 10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	first, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Elisa Prado",
		ClientCPF:  "111.222.333-44",
		Items:      []domain.OrderItemDraft{{ProductID: fifty.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Elisa P.",
		ClientCPF:  "111.222.333-44",
		Items:      []domain.OrderItemDraft{{ProductID: thirty.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("second order: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Fernanda Melo",
		Items:      []domain.OrderItemDraft{{ProductID: thirty.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("third order: %v", err)
	}

	customers, err := svc.Customers(ctx)
	if err != nil {
		t.Fatalf("customers: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("customers = %d, want 2", len(customers))
	}

	var elisa *domain.CustomerSummary
	for i := range customers {
		if customers[i].CPF == "111.222.333-44" {
			elisa = &customers[i]
		}
	}
	if elisa == nil {
		t.Fatal("shared-CPF customer missing")
	}
	if !elisa.TotalSpent.Equal(dec("80.00")) {
		t.Fatalf("total spent = %s, want 80.00", elisa.TotalSpent)
	}
	if elisa.QuotesCount != 2 {
		t.Fatalf("quote count = %d, want 2", elisa.QuotesCount)
	}

	// Cancelled orders stay counted.
	if _, err := svc.UpdateOrderStatus(ctx, first.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	customers, err = svc.Customers(ctx)
	if err != nil {
		t.Fatalf("customers after cancel: %v", err)
	}
	for _, c := range customers {
		if c.CPF == "111.222.333-44" && !c.TotalSpent.Equal(dec("80.00")) {
			t.Fatalf("total spent after cancel = %s, want 80.00", c.TotalSpent)
		}
	}
}

func TestDashboardSummary(t *testing.T) {
	ctx, svc := newTestService(t)

	sold, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Gisele Nunes",
		Items:      []domain.OrderItemDraft{{ProductID: "1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first order: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(ctx, sold.ID, domain.StatusSold); err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	pending, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Helena Costa",
		Items:      []domain.OrderItemDraft{{ProductID: "2", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second order: %v", err)
	}

	summary, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	// Only the Vendido order counts as revenue.
	if !summary.TotalSales.Equal(dec("112.50")) {
		t.Fatalf("total sales = %s, want 112.50", summary.TotalSales)
	}
	if summary.OrderCount != 2 || summary.PendingCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", summary.OrderCount, summary.PendingCount)
	}
	// Seeded Vestido Floral Verão sits at stock 4.
	if summary.LowStockCount < 1 {
		t.Fatalf("low stock count = %d, want at least 1", summary.LowStockCount)
	}
	if len(summary.RecentOrders) != 2 {
		t.Fatalf("recent orders = %d, want 2", len(summary.RecentOrders))
	}
	if summary.RecentOrders[0].OrderID != sold.ID || summary.RecentOrders[1].OrderID != pending.ID {
		t.Fatalf("recent order sequence = %d,%d, want %d,%d",
			summary.RecentOrders[0].OrderID, summary.RecentOrders[1].OrderID, sold.ID, pending.ID)
	}
}

func TestOrderDocument(t *testing.T) {
	ctx, svc := newTestService(t)

	order, err := svc.CreateOrder(ctx, domain.OrderCreateRequest{
		ClientName: "Iara Campos",
		Items:      []domain.OrderItemDraft{{ProductID: "1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	filename, payload, err := svc.OrderDocument(ctx, order.ID)
	if err != nil {
		t.Fatalf("order document: %v", err)
	}
	if filename != "Pedido_Kids_Iara_Campos_1.pdf" {
		t.Fatalf("filename = %q", filename)
	}
	if len(payload) == 0 {
		t.Fatal("expected pdf bytes")
	}

	if _, _, err := svc.OrderDocument(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOrderIntroWithoutGenerator(t *testing.T) {
	ctx, svc := newTestService(t)

	resp, err := svc.OrderIntro(ctx, domain.IntroRequest{ClientName: "Julia", ItemsCount: 2})
	if err != nil {
		t.Fatalf("order intro: %v", err)
	}
	if resp.Text == "" {
		t.Fatal("expected fallback text")
	}

	if _, err := svc.OrderIntro(ctx, domain.IntroRequest{ClientName: "  "}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestActorContext(t *testing.T) {
	ctx := WithActor(context.Background(), domain.Actor{Username: "dona", Role: "owner"})

	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username != "dona" || actor.Role != "owner" {
		t.Fatalf("actor = %+v ok=%v", actor, ok)
	}
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("unexpected actor on empty context")
	}
}
