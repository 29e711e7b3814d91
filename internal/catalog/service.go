package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugotzc/oasa-backend/internal/storefront"
	apperrors "github.com/hugotzc/oasa-backend/pkg/errors"
	"github.com/hugotzc/oasa-backend/pkg/pagination"
)

// Capabilities hands the service the storefront view used to gate prices.
type Capabilities interface {
	Get(ctx context.Context, clientID string) storefront.Snapshot
}

// ProductView is a product as served to storefront consumers. Price fields
// are nil when the client's capabilities hide pricing.
type ProductView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	IsFeatured   bool      `json:"is_featured"`
	Price        *string   `json:"price,omitempty"`
	CurrencyCode *string   `json:"currency_code,omitempty"`
	CanAddToCart bool      `json:"can_add_to_cart"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products   []ProductView `json:"products"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo         Repository
	Capabilities Capabilities
}

// Service serves the storefront product listing with capability-gated prices.
type Service struct {
	repo         Repository
	capabilities Capabilities
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Capabilities == nil {
		return nil, errors.New("capabilities provider is required")
	}
	return &Service{repo: params.Repo, capabilities: params.Capabilities}, nil
}

// ListParams are the consumer-facing list inputs.
type ListParams struct {
	Category *string
	Featured *bool
	Limit    int
	Cursor   string
}

// ListProducts returns one page of products for the client, redacting prices
// unless the resolved capabilities show them.
func (s *Service) ListProducts(ctx context.Context, clientID string, params ListParams) (*ProductPage, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	products, next, err := s.repo.ListProducts(ctx, ListProductsQuery{
		ClientID: clientID,
		Category: params.Category,
		Featured: params.Featured,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing products")
	}

	caps := s.capabilities.Get(ctx, clientID)

	page := &ProductPage{Products: make([]ProductView, 0, len(products))}
	for _, product := range products {
		view := ProductView{
			ID:           product.ID,
			Name:         product.Name,
			Slug:         product.Slug,
			Description:  product.Description,
			Category:     product.Category,
			Tags:         product.Tags,
			IsFeatured:   product.IsFeatured,
			CanAddToCart: caps.Flags.ShowAddToCart,
			CreatedAt:    product.CreatedAt,
		}
		if caps.Flags.ShowPrices {
			price := product.PriceAmount.StringFixed(2)
			currency := product.CurrencyCode
			view.Price = &price
			view.CurrencyCode = &currency
		}
		page.Products = append(page.Products, view)
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

// GetProduct returns a single product view by slug.
func (s *Service) GetProduct(ctx context.Context, clientID, slug string) (*ProductView, error) {
	if clientID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "client id is required")
	}
	product, err := s.repo.FindProductBySlug(ctx, clientID, slug)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "finding product")
	}
	if product == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown product %q", slug))
	}

	caps := s.capabilities.Get(ctx, clientID)
	view := &ProductView{
		ID:           product.ID,
		Name:         product.Name,
		Slug:         product.Slug,
		Description:  product.Description,
		Category:     product.Category,
		Tags:         product.Tags,
		IsFeatured:   product.IsFeatured,
		CanAddToCart: caps.Flags.ShowAddToCart,
		CreatedAt:    product.CreatedAt,
	}
	if caps.Flags.ShowPrices {
		price := product.PriceAmount.StringFixed(2)
		currency := product.CurrencyCode
		view.Price = &price
		view.CurrencyCode = &currency
	}
	return view, nil
}
