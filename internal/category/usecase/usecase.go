package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute"
	"github.com/fekuna/omnipos-attribute-service/internal/auth"
	"github.com/fekuna/omnipos-attribute-service/internal/cache"
	"github.com/fekuna/omnipos-attribute-service/internal/category"
	"github.com/fekuna/omnipos-attribute-service/internal/category/binding"
	"github.com/fekuna/omnipos-attribute-service/internal/category/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/events"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/slug"
)

type categoryUseCase struct {
	repo       category.Repository
	attributes attribute.Repository
	cache      cache.Cache
	ttl        time.Duration
	publisher  events.Publisher
	logger     logger.ZapLogger
}

func NewCategoryUseCase(
	repo category.Repository,
	attributes attribute.Repository,
	c cache.Cache,
	ttl time.Duration,
	publisher events.Publisher,
	log logger.ZapLogger,
) category.UseCase {
	return &categoryUseCase{
		repo:       repo,
		attributes: attributes,
		cache:      c,
		ttl:        ttl,
		publisher:  publisher,
		logger:     log,
	}
}

func bindingsKey(categoryID string) string {
	return fmt.Sprintf("category:%s:bindings", categoryID)
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "name", "name is required")
	}

	if input.ParentID != nil && *input.ParentID != "" {
		if _, err := uc.findCategory(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	} else {
		input.ParentID = nil
	}

	s := input.Slug
	if strings.TrimSpace(s) == "" {
		s = name
	}
	s = slug.Make(s)
	if s == "" {
		return nil, apperror.NewValidation(apperror.CodeInvalidInput, "slug", "slug is required")
	}
	taken, err := uc.repo.SlugExists(ctx, s, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.NewValidation(apperror.CodeSlugTaken, "slug", "slug "+s+" is already used by another category")
	}

	now := time.Now()
	cat := &model.Category{
		BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ParentID:           input.ParentID,
		Name:               name,
		Slug:               s,
		Description:        optional(input.Description),
		ImageURL:           optional(input.ImageURL),
		SortOrder:          input.SortOrder,
		IsActive:           true,
		CategoryAttributes: []model.CategoryAttribute{},
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	bindings, err := uc.Bindings(ctx, id)
	if err != nil {
		return nil, err
	}
	cat.CategoryAttributes = bindings
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if filters.IncludeChildren {
		return buildTree(categories), count, nil
	}
	return categories, count, nil
}

// buildTree nests categories under their parents. Categories whose parent is
// not in the page are returned as roots.
func buildTree(flat []model.Category) []model.Category {
	index := make(map[string]int, len(flat))
	for i, c := range flat {
		index[c.ID] = i
	}
	children := map[string][]string{}
	var roots []string
	for _, c := range flat {
		if c.ParentID != nil {
			if _, ok := index[*c.ParentID]; ok {
				children[*c.ParentID] = append(children[*c.ParentID], c.ID)
				continue
			}
		}
		roots = append(roots, c.ID)
	}

	var build func(id string, depth int) model.Category
	build = func(id string, depth int) model.Category {
		c := flat[index[id]]
		c.Children = nil
		if depth > len(flat) {
			return c
		}
		for _, childID := range children[id] {
			c.Children = append(c.Children, build(childID, depth+1))
		}
		return c
	}

	out := make([]model.Category, 0, len(roots))
	for _, id := range roots {
		out = append(out, build(id, 0))
	}
	return out
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	cat, err := uc.findCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.NewValidation(apperror.CodeInvalidInput, "name", "name is required")
		}
		cat.Name = name
	}
	if input.Description != nil {
		cat.Description = optional(*input.Description)
	}
	if input.ImageURL != nil {
		cat.ImageURL = optional(*input.ImageURL)
	}
	if input.SortOrder != nil {
		cat.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}
	if input.ParentID != nil {
		parentID := *input.ParentID
		switch {
		case parentID == "":
			cat.ParentID = nil
		case parentID == cat.ID:
			return nil, apperror.NewValidation(apperror.CodeInvalidInput, "parentId", "a category cannot be its own parent")
		default:
			if _, err := uc.findCategory(ctx, parentID); err != nil {
				return nil, err
			}
			cat.ParentID = &parentID
		}
	}

	cat.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if _, err := uc.findCategory(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := uc.InvalidateCategories(ctx, id); err != nil {
		uc.logger.Error("failed to invalidate category bindings", zap.String("category_id", id), zap.Error(err))
	}
	uc.publish(ctx, events.CategoryDeleted, id)
	return nil
}

// Bindings reads through the cache. Bindings whose attribute no longer
// resolves are dropped from the result.
func (uc *categoryUseCase) Bindings(ctx context.Context, categoryID string) ([]model.CategoryAttribute, error) {
	var cached []model.CategoryAttribute
	found, err := uc.cache.GetJSON(ctx, bindingsKey(categoryID), &cached)
	if err != nil {
		uc.logger.Warn("category bindings cache read failed", zap.String("category_id", categoryID), zap.Error(err))
	}
	if found {
		return cached, nil
	}

	raw, err := uc.repo.FindBindings(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	resolved, err := uc.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.SetJSON(ctx, bindingsKey(categoryID), resolved, uc.ttl); err != nil {
		uc.logger.Warn("category bindings cache write failed", zap.String("category_id", categoryID), zap.Error(err))
	}
	return resolved, nil
}

func (uc *categoryUseCase) resolve(ctx context.Context, raw []model.CategoryAttribute) ([]model.CategoryAttribute, error) {
	ids := make([]string, len(raw))
	for i, b := range raw {
		ids[i] = b.AttributeID
	}
	attrs, err := uc.attributes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Attribute, len(attrs))
	for i := range attrs {
		byID[attrs[i].ID] = &attrs[i]
	}

	out := make([]model.CategoryAttribute, 0, len(raw))
	for _, b := range raw {
		attr, ok := byID[b.AttributeID]
		if !ok {
			uc.logger.Warn("binding references a missing attribute",
				zap.String("category_id", b.CategoryID),
				zap.String("attribute_id", b.AttributeID),
			)
			continue
		}
		b.Attribute = attr
		out = append(out, b)
	}
	return binding.Sorted(out), nil
}

func (uc *categoryUseCase) AssignAttribute(ctx context.Context, categoryID, attributeID string) (*model.CategoryAttribute, error) {
	attr, err := uc.attributes.FindByID(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, apperror.NewNotFound(apperror.CodeAttributeNotFound, attributeID)
	}
	if err := checkAssignable(attr); err != nil {
		return nil, err
	}

	var assigned model.CategoryAttribute
	_, err = uc.edit(ctx, categoryID, func(e *binding.Editor) error {
		assigned, err = e.Assign(attr)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("attribute assigned",
		zap.String("category_id", categoryID),
		zap.String("attribute_id", attributeID),
		zap.Int("sort_order", assigned.SortOrder),
		zap.String("actor", auth.GetActor(ctx)),
	)
	return &assigned, nil
}

func (uc *categoryUseCase) UnassignAttribute(ctx context.Context, categoryID, attributeID string) error {
	_, err := uc.edit(ctx, categoryID, func(e *binding.Editor) error {
		return e.Unassign(attributeID)
	})
	return err
}

func (uc *categoryUseCase) ToggleRequired(ctx context.Context, categoryID, attributeID string) (*model.CategoryAttribute, error) {
	list, err := uc.edit(ctx, categoryID, func(e *binding.Editor) error {
		_, err := e.ToggleRequired(attributeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].AttributeID == attributeID {
			return &list[i], nil
		}
	}
	return nil, apperror.NewNotFound(apperror.CodeBindingNotFound, attributeID)
}

func (uc *categoryUseCase) ReorderAttributes(ctx context.Context, input *dto.ReorderInput) ([]model.CategoryAttribute, error) {
	return uc.edit(ctx, input.CategoryID, func(e *binding.Editor) error {
		return e.Reorder(input.FromIndex, input.ToIndex)
	})
}

// ReplaceBindings is the bulk form used by the assignment screen: the given
// list becomes the category's complete binding set.
func (uc *categoryUseCase) ReplaceBindings(ctx context.Context, categoryID string, list []model.CategoryAttribute) ([]model.CategoryAttribute, error) {
	if _, err := uc.findCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	normalized, err := binding.Normalize(categoryID, list)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(normalized))
	for i, b := range normalized {
		ids[i] = b.AttributeID
	}
	attrs, err := uc.attributes.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Attribute, len(attrs))
	for i := range attrs {
		byID[attrs[i].ID] = &attrs[i]
	}
	for i := range normalized {
		attr, ok := byID[normalized[i].AttributeID]
		if !ok {
			return nil, apperror.NewNotFound(apperror.CodeAttributeNotFound, normalized[i].AttributeID)
		}
		if err := checkAssignable(attr); err != nil {
			return nil, err
		}
		normalized[i].Attribute = attr
	}

	if err := uc.save(ctx, categoryID, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// edit loads the current bindings, applies fn through an Editor and
// bulk-replaces the result. Concurrent edits of one category are last
// write wins.
func (uc *categoryUseCase) edit(ctx context.Context, categoryID string, fn func(e *binding.Editor) error) ([]model.CategoryAttribute, error) {
	if _, err := uc.findCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	current, err := uc.repo.FindBindings(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	resolved, err := uc.resolve(ctx, current)
	if err != nil {
		return nil, err
	}

	editor := binding.NewEditor(categoryID, resolved)
	if err := fn(editor); err != nil {
		return nil, err
	}

	list := editor.Bindings()
	if err := uc.save(ctx, categoryID, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (uc *categoryUseCase) save(ctx context.Context, categoryID string, list []model.CategoryAttribute) error {
	if err := uc.repo.ReplaceBindings(ctx, categoryID, list); err != nil {
		return err
	}
	if err := uc.InvalidateCategories(ctx, categoryID); err != nil {
		uc.logger.Error("failed to invalidate category bindings", zap.String("category_id", categoryID), zap.Error(err))
	}
	uc.publish(ctx, events.CategoryAttributesReplaced, categoryID)
	return nil
}

// InvalidateCategories drops the cached bindings of each category. It is
// the local half of schema invalidation; the catalog listener calls it for
// events published by other instances.
func (uc *categoryUseCase) InvalidateCategories(ctx context.Context, categoryIDs ...string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	keys := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		keys[i] = bindingsKey(id)
	}
	return uc.cache.Delete(ctx, keys...)
}

func (uc *categoryUseCase) publish(ctx context.Context, eventType, categoryID string) {
	evt := events.New(eventType, events.CatalogPayload{
		CategoryIDs: []string{categoryID},
		Actor:       auth.GetActor(ctx),
	})
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Error("failed to publish catalog event",
			zap.String("event_type", eventType),
			zap.String("category_id", categoryID),
			zap.Error(err),
		)
	}
}

func (uc *categoryUseCase) findCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.NewNotFound(apperror.CodeCategoryNotFound, id)
	}
	return cat, nil
}

// checkAssignable holds the rule that enumerable attributes carry at least
// one value before they join a category.
func checkAssignable(attr *model.Attribute) error {
	if attr.Type.Enumerable() && len(attr.AttributeValues) == 0 {
		return apperror.NewValidation(apperror.CodeMissingValues, attr.ID,
			fmt.Sprintf("%s attribute %q has no values to choose from", attr.Type, attr.Name))
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
