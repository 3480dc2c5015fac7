package product

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	SearchProducts(ctx context.Context, input *dto.SearchInput) (*dto.SearchResult, error)

	// GenerateVariants previews the variant rows for a set of dimensions
	// without saving anything.
	GenerateVariants(ctx context.Context, input *dto.GenerateVariantsInput) ([]model.Variant, error)
}
