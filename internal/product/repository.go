package product

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
)

type Repository interface {
	// Create inserts the product and its variants in one transaction.
	Create(ctx context.Context, product *model.Product) error
	// FindByID loads the product with its variants.
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	// Update writes the product row and replaces its variants.
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
}
