package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/internal/storefront"
	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/pagination"
)

type stubRepo struct {
	products []models.Product
	next     *pagination.Cursor
	byName   map[string]*models.Product
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	r.products = append(r.products, *product)
	return nil
}

func (r *stubRepo) ListProducts(ctx context.Context, params ListProductsQuery) ([]models.Product, *pagination.Cursor, error) {
	return r.products, r.next, nil
}

func (r *stubRepo) FindProductBySlug(ctx context.Context, clientID, slug string) (*models.Product, error) {
	return r.byName[slug], nil
}

type stubCapabilities struct {
	snapshot storefront.Snapshot
}

func (c *stubCapabilities) Get(ctx context.Context, clientID string) storefront.Snapshot {
	return c.snapshot
}

func sampleProduct(name string) models.Product {
	return models.Product{
		ID:           uuid.New(),
		ClientID:     "client-a",
		Name:         name,
		Slug:         name,
		PriceAmount:  decimal.NewFromFloat(149.90),
		CurrencyCode: "MXN",
		Tags:         []string{"featured"},
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func fullCaps() storefront.Snapshot {
	return storefront.Snapshot{
		Mode:        entitlements.ModeFull,
		CanPurchase: true,
		Flags: entitlements.DisplayFlags{
			ShowCart:      true,
			ShowPrices:    true,
			ShowAddToCart: true,
			ShowCheckout:  true,
		},
	}
}

func disabledCaps() storefront.Snapshot {
	return storefront.Snapshot{Mode: entitlements.ModeDisabled}
}

func TestListProductsShowsPricesInFullMode(t *testing.T) {
	repo := &stubRepo{products: []models.Product{sampleProduct("hibiscus-tea")}}
	svc, err := NewService(ServiceParams{Repo: repo, Capabilities: &stubCapabilities{snapshot: fullCaps()}})
	require.NoError(t, err)

	page, err := svc.ListProducts(context.Background(), "client-a", ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.NotNil(t, page.Products[0].Price)
	require.Equal(t, "149.90", *page.Products[0].Price)
	require.Equal(t, "MXN", *page.Products[0].CurrencyCode)
	require.True(t, page.Products[0].CanAddToCart)
}

func TestListProductsRedactsPricesWhenDisabled(t *testing.T) {
	repo := &stubRepo{products: []models.Product{sampleProduct("hibiscus-tea")}}
	svc, err := NewService(ServiceParams{Repo: repo, Capabilities: &stubCapabilities{snapshot: disabledCaps()}})
	require.NoError(t, err)

	page, err := svc.ListProducts(context.Background(), "client-a", ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Nil(t, page.Products[0].Price)
	require.Nil(t, page.Products[0].CurrencyCode)
	require.False(t, page.Products[0].CanAddToCart)
}

func TestListProductsEncodesNextCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	repo := &stubRepo{products: []models.Product{sampleProduct("a")}, next: next}
	svc, err := NewService(ServiceParams{Repo: repo, Capabilities: &stubCapabilities{snapshot: fullCaps()}})
	require.NoError(t, err)

	page, err := svc.ListProducts(context.Background(), "client-a", ListParams{})
	require.NoError(t, err)
	require.NotNil(t, page.NextCursor)

	parsed, err := pagination.ParseCursor(*page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, next.ID, parsed.ID)
}

func TestListProductsRejectsBadCursor(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(ServiceParams{Repo: repo, Capabilities: &stubCapabilities{snapshot: fullCaps()}})
	require.NoError(t, err)

	_, err = svc.ListProducts(context.Background(), "client-a", ListParams{Cursor: "%%%"})
	require.Error(t, err)
}

func TestGetProductNotFound(t *testing.T) {
	repo := &stubRepo{byName: map[string]*models.Product{}}
	svc, err := NewService(ServiceParams{Repo: repo, Capabilities: &stubCapabilities{snapshot: fullCaps()}})
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), "client-a", "missing")
	require.Error(t, err)
}
