package order

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/botica/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

type mockOrderRepo struct {
	orders    []Order
	createErr error
	creates   int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- Helpers ---

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestProduct(id, title, price string) product.Product {
	return product.Product{
		ID:    id,
		Title: title,
		Price: decimal.RequireFromString(price),
		Image: id + ".jpg",
	}
}

func newTestService(products *mockProductRepo, orders *mockOrderRepo) *Service {
	seq := 0
	return NewService(products, orders,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return "o" + strconv.Itoa(seq)
		}),
	)
}

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(&mockProductRepo{}, orders)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1", Lines: []CartLine{}})
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Zero(t, orders.creates, "nothing must be written for an empty cart")
}

func TestPlaceOrder_PricesFromCatalog(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{
		newTestProduct("p1", "Ibuprofen 400mg", "9.99"),
		newTestProduct("p2", "Vitamin C", "4.50"),
	}}
	orders := &mockOrderRepo{}
	svc := newTestService(products, orders)

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		Address: "Main St 1",
	})
	require.NoError(t, err)

	require.Len(t, o.Items, 2)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Main St 1", o.Address)
	assert.Equal(t, fixedNow, o.CreatedAt)

	assert.Equal(t, "Ibuprofen 400mg", o.Items[0].Title)
	assert.True(t, decimal.RequireFromString("19.98").Equal(o.Items[0].Subtotal))
	assert.True(t, decimal.RequireFromString("13.50").Equal(o.Items[1].Subtotal))
	assert.True(t, decimal.RequireFromString("33.48").Equal(o.Total))

	require.Len(t, orders.orders, 1)
	assert.Equal(t, o.ID, orders.orders[0].ID)
}

func TestPlaceOrder_TotalIsSumOfSubtotals(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{
		newTestProduct("a", "A", "0.10"),
		newTestProduct("b", "B", "0.20"),
		newTestProduct("c", "C", "1234.567"),
	}}
	svc := newTestService(products, &mockOrderRepo{})

	carts := [][]CartLine{
		{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}},
		{{ProductID: "a", Quantity: 7}, {ProductID: "c", Quantity: 3}, {ProductID: "a", Quantity: 2}},
		{{ProductID: "c", Quantity: 999}},
	}

	for _, cart := range carts {
		o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1", Lines: cart})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, it := range o.Items {
			assert.True(t, it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.Subtotal))
			sum = sum.Add(it.Subtotal)
		}
		assert.True(t, sum.Equal(o.Total), "total %s != sum %s", o.Total, sum)
	}
}

func TestPlaceOrder_UnknownProductsDropped(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{newTestProduct("p1", "Widget", "10.00")}}
	orders := &mockOrderRepo{}
	svc := newTestService(products, orders)

	t.Run("mixed cart keeps known lines", func(t *testing.T) {
		o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: "u1",
			Lines: []CartLine{
				{ProductID: "missing", Quantity: 5},
				{ProductID: "p1", Quantity: 1},
			},
		})
		require.NoError(t, err)
		require.Len(t, o.Items, 1)
		assert.Equal(t, "p1", o.Items[0].ProductID)
		assert.True(t, decimal.RequireFromString("10").Equal(o.Total))
	})

	t.Run("only unknown products yields empty order", func(t *testing.T) {
		o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: "u1",
			Lines:  []CartLine{{ProductID: "nope", Quantity: 1}, {ProductID: "", Quantity: 2}},
		})
		require.NoError(t, err)
		assert.Empty(t, o.Items)
		assert.NotNil(t, o.Items)
		assert.True(t, decimal.Zero.Equal(o.Total))
	})
}

func TestPlaceOrder_QuantityDefaultsToOne(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{newTestProduct("p1", "Widget", "2.50")}}
	svc := newTestService(products, &mockOrderRepo{})

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines: []CartLine{
			{ProductID: "p1", Quantity: 0},
			{ProductID: "p1", Quantity: -4},
		},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 2)
	for _, it := range o.Items {
		assert.Equal(t, 1, it.Quantity)
	}
	assert.True(t, decimal.RequireFromString("5.00").Equal(o.Total))
}

func TestPlaceOrder_CatalogError(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(&mockProductRepo{listErr: errors.New("disk gone")}, orders)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []CartLine{{ProductID: "p1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
	assert.Zero(t, orders.creates)
}

func TestPlaceOrder_OrderCreateError(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{newTestProduct("p1", "Widget", "10")}}
	svc := newTestService(products, &mockOrderRepo{createErr: errors.New("write failed")})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []CartLine{{ProductID: "p1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestListOrders(t *testing.T) {
	products := &mockProductRepo{products: []product.Product{newTestProduct("p1", "Widget", "10")}}
	orders := &mockOrderRepo{}
	svc := newTestService(products, orders)
	ctx := context.Background()

	for _, uid := range []string{"alice", "bob", "alice"} {
		_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{UserID: uid, Lines: []CartLine{{ProductID: "p1", Quantity: 1}}})
		require.NoError(t, err)
	}

	first, err := svc.ListOrders(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "o1", first[0].ID)
	assert.Equal(t, "o3", first[1].ID)

	second, err := svc.ListOrders(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	none, err := svc.ListOrders(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 2 ", 2},
		{"2.9", 2},
		{"0.5", 0},
		{"-1", 0},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"1e3", 1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseQuantity(tt.in), "ParseQuantity(%q)", tt.in)
	}
}
