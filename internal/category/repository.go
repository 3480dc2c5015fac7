package category

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/category/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)

	// FindBindings returns the raw binding rows of a category; Attribute is
	// left nil.
	FindBindings(ctx context.Context, categoryID string) ([]model.CategoryAttribute, error)

	// ReplaceBindings swaps the category's binding list for bindings in one
	// transaction.
	ReplaceBindings(ctx context.Context, categoryID string, bindings []model.CategoryAttribute) error
}
