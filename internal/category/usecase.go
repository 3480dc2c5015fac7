package category

import (
	"context"

	"github.com/fekuna/omnipos-attribute-service/internal/category/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Bindings returns the category's bindings with attributes resolved, in
	// display order.
	Bindings(ctx context.Context, categoryID string) ([]model.CategoryAttribute, error)

	// Assignment ops
	AssignAttribute(ctx context.Context, categoryID, attributeID string) (*model.CategoryAttribute, error)
	UnassignAttribute(ctx context.Context, categoryID, attributeID string) error
	ToggleRequired(ctx context.Context, categoryID, attributeID string) (*model.CategoryAttribute, error)
	ReorderAttributes(ctx context.Context, input *dto.ReorderInput) ([]model.CategoryAttribute, error)
	ReplaceBindings(ctx context.Context, categoryID string, bindings []model.CategoryAttribute) ([]model.CategoryAttribute, error)

	InvalidateCategories(ctx context.Context, categoryIDs ...string) error
}
