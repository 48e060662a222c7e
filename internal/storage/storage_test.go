package storage

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/botica/internal/domain/contact"
	"github.com/xenking/botica/internal/domain/order"
	"github.com/xenking/botica/internal/domain/product"
	"github.com/xenking/botica/internal/domain/user"
)

// failingBackend fails every call with ErrUnavailable.
type failingBackend struct{}

func (failingBackend) Load(context.Context) (*Document, error) {
	return nil, Unavailable(errors.New("read failed"), "read document")
}

func (failingBackend) Save(context.Context, *Document) error {
	return Unavailable(errors.New("write failed"), "write document")
}

func (failingBackend) Ping(context.Context) error { return nil }

func seedProducts(t *testing.T, b Backend, products ...product.Product) {
	t.Helper()
	_, _, err := NewProductRepository(b).Upsert(context.Background(), products)
	require.NoError(t, err)
}

func TestMemory_EmptyDocument(t *testing.T) {
	m := NewMemory()

	doc, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Users)
	assert.NotNil(t, doc.Products)
	assert.NotNil(t, doc.Orders)
	assert.NotNil(t, doc.Contacts)
}

func TestMemory_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, &Document{Users: []user.User{{ID: "u1", Email: "a@example.com"}}}))

	doc, err := m.Load(ctx)
	require.NoError(t, err)
	doc.Users[0].Email = "changed@example.com"

	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Users[0].Email)
	assert.Equal(t, 1, m.Saves())
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemory())

	_, err := repo.FindByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)

	require.NoError(t, repo.Create(ctx, &user.User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}))

	u, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "h", u.PasswordHash)

	err = repo.Create(ctx, &user.User{ID: "u2", Email: "Alice@Example.com"})
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	repo := NewProductRepository(b)

	inserted, updated, err := repo.Upsert(ctx, []product.Product{
		{ID: "p1", Title: "Aspirin", Price: decimal.RequireFromString("3.20")},
		{ID: "p2", Title: "Amoxicillin", Price: decimal.RequireFromString("12.00"), Prescription: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Zero(t, updated)

	inserted, updated, err = repo.Upsert(ctx, []product.Product{
		{ID: "p1", Title: "Aspirin 500", Price: decimal.RequireFromString("3.50")},
	})
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 1, updated)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aspirin 500", list[0].Title)
	assert.True(t, decimal.RequireFromString("3.50").Equal(list[0].Price))
	assert.True(t, list[1].Prescription)

	p, err := repo.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", p.Title)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	repo := NewOrderRepository(b)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, o := range []order.Order{
		{ID: "o1", UserID: "alice", Total: decimal.RequireFromString("19.98"), CreatedAt: created, Status: order.StatusPending},
		{ID: "o2", UserID: "bob", Total: decimal.Zero, CreatedAt: created, Status: order.StatusPending},
		{ID: "o3", UserID: "alice", Total: decimal.RequireFromString("1"), CreatedAt: created, Status: order.StatusPending},
	} {
		require.NoError(t, repo.Create(ctx, &o))
	}

	alice, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "o1", alice[0].ID)
	assert.Equal(t, "o3", alice[1].ID)
	assert.True(t, decimal.RequireFromString("19.98").Equal(alice[0].Total))
	assert.True(t, created.Equal(alice[0].CreatedAt))

	none, err := repo.ListByUser(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()

	require.NoError(t, NewContactRepository(b).Append(ctx, &contact.Message{ID: "c1", Name: "A", Message: "hi"}))

	doc, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Contacts, 1)
	assert.Equal(t, "c1", doc.Contacts[0].ID)
}

func TestRepositories_MutationsKeepOtherCollections(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	seedProducts(t, b, product.Product{ID: "p1", Title: "Aspirin", Price: decimal.RequireFromString("3.20")})

	require.NoError(t, NewUserRepository(b).Create(ctx, &user.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, NewOrderRepository(b).Create(ctx, &order.Order{ID: "o1", UserID: "u1"}))
	require.NoError(t, NewContactRepository(b).Append(ctx, &contact.Message{ID: "c1"}))

	doc, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Products, 1)
	assert.Len(t, doc.Users, 1)
	assert.Len(t, doc.Orders, 1)
	assert.Len(t, doc.Contacts, 1)
}

func TestRepositories_Unavailable(t *testing.T) {
	ctx := context.Background()
	b := failingBackend{}

	_, err := NewUserRepository(b).FindByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewProductRepository(b).List(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = NewOrderRepository(b).Create(ctx, &order.Order{ID: "o1"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewOrderRepository(b).ListByUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrUnavailable)

	err = NewContactRepository(b).Append(ctx, &contact.Message{ID: "c1"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
