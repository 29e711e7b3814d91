package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/hugotzc/oasa-backend/pkg/db/models"
	"github.com/hugotzc/oasa-backend/pkg/pagination"
)

// Repository handles product persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, params ListProductsQuery) ([]models.Product, *pagination.Cursor, error)
	FindProductBySlug(ctx context.Context, clientID, slug string) (*models.Product, error)
}

// ListProductsQuery configures product list queries.
type ListProductsQuery struct {
	ClientID string
	Category *string
	Featured *bool
	Limit    int
	Cursor   *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) ListProducts(ctx context.Context, params ListProductsQuery) ([]models.Product, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("client_id = ? AND is_active = ?", params.ClientID, true)
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Featured != nil {
		query = query.Where("is_featured = ?", *params.Featured)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > limit {
		next := products[limit]
		products = products[:limit]
		return products, &pagination.Cursor{
			CreatedAt: next.CreatedAt,
			ID:        next.ID,
		}, nil
	}

	return products, nil, nil
}

func (r *repository) FindProductBySlug(ctx context.Context, clientID, slug string) (*models.Product, error) {
	if slug == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND slug = ?", clientID, slug).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}
