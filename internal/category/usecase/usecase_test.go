package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	attrdto "github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/cache"
	"github.com/fekuna/omnipos-attribute-service/internal/category/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/events"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type memCategories struct {
	categories map[string]*model.Category
	bindings   map[string][]model.CategoryAttribute
	reads      int
}

func (r *memCategories) Create(_ context.Context, c *model.Category) error {
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *memCategories) FindByID(_ context.Context, id string) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCategories) FindAll(_ context.Context, _ *dto.CategoryFilters) ([]model.Category, int, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memCategories) Update(_ context.Context, c *model.Category) error {
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *memCategories) Delete(_ context.Context, id string) error {
	delete(r.categories, id)
	delete(r.bindings, id)
	return nil
}

func (r *memCategories) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	for _, c := range r.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCategories) FindBindings(_ context.Context, categoryID string) ([]model.CategoryAttribute, error) {
	r.reads++
	var out []model.CategoryAttribute
	for _, b := range r.bindings[categoryID] {
		b.Attribute = nil
		out = append(out, b)
	}
	return out, nil
}

func (r *memCategories) ReplaceBindings(_ context.Context, categoryID string, list []model.CategoryAttribute) error {
	r.bindings[categoryID] = append([]model.CategoryAttribute(nil), list...)
	return nil
}

type memAttributes struct {
	attrs map[string]model.Attribute
}

func (r *memAttributes) Create(context.Context, *model.Attribute) error { return nil }

func (r *memAttributes) FindByID(_ context.Context, id string) (*model.Attribute, error) {
	a, ok := r.attrs[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAttributes) FindByIDs(_ context.Context, ids []string) ([]model.Attribute, error) {
	var out []model.Attribute
	for _, id := range ids {
		if a, ok := r.attrs[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttributes) FindAll(context.Context, *attrdto.AttributeFilters) ([]model.Attribute, int, error) {
	return nil, 0, nil
}
func (r *memAttributes) SlugExists(context.Context, string, string) (bool, error) { return false, nil }
func (r *memAttributes) Update(context.Context, *model.Attribute, bool) error { return nil }
func (r *memAttributes) AddValue(context.Context, *model.AttributeValue) error { return nil }
func (r *memAttributes) RemoveValue(context.Context, string, string) error { return nil }
func (r *memAttributes) CategoryIDs(context.Context, string) ([]string, error) { return nil, nil }
func (r *memAttributes) DeleteCascade(context.Context, string) ([]string, error) { return nil, nil }

type recordingPublisher struct {
	events []*events.CatalogEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt *events.CatalogEvent) error {
	p.events = append(p.events, evt)
	return nil
}

type fixture struct {
	repo      *memCategories
	attrs     *memAttributes
	cache     *cache.Memory
	publisher *recordingPublisher
	uc        *categoryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: &memCategories{
			categories: map[string]*model.Category{},
			bindings:   map[string][]model.CategoryAttribute{},
		},
		attrs: &memAttributes{attrs: map[string]model.Attribute{
			"storage": {
				BaseModel: model.BaseModel{ID: "storage"},
				Name:      "Storage",
				Type:      model.AttributeTypeSelect,
				AttributeValues: []model.AttributeValue{
					{ID: "64gb-id", Value: "64", Order: 1},
					{ID: "128gb-id", Value: "128", Order: 2},
				},
			},
			"color": {
				BaseModel:       model.BaseModel{ID: "color"},
				Name:            "Color",
				Type:            model.AttributeTypeMultiSelect,
				AttributeValues: []model.AttributeValue{{ID: "black-id", Value: "Black", Order: 1}},
			},
			"brand":  {BaseModel: model.BaseModel{ID: "brand"}, Name: "Brand", Type: model.AttributeTypeText},
			"finish": {BaseModel: model.BaseModel{ID: "finish"}, Name: "Finish", Type: model.AttributeTypeSelect},
		}},
		cache:     cache.NewMemory(),
		publisher: &recordingPublisher{},
	}
	f.uc = NewCategoryUseCase(f.repo, f.attrs, f.cache, time.Minute, f.publisher, logger.NewNop()).(*categoryUseCase)

	f.repo.categories["phones"] = &model.Category{BaseModel: model.BaseModel{ID: "phones"}, Name: "Smartphones", Slug: "smartphones", IsActive: true}
	return f
}

func attributeIDs(list []model.CategoryAttribute) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.AttributeID
	}
	return out
}

func TestAssignAttribute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.uc.AssignAttribute(ctx, "phones", "storage")
	require.NoError(t, err)
	assert.Equal(t, 1, b.SortOrder)
	assert.False(t, b.IsRequired)

	b, err = f.uc.AssignAttribute(ctx, "phones", "color")
	require.NoError(t, err)
	assert.Equal(t, 2, b.SortOrder)

	_, err = f.uc.AssignAttribute(ctx, "phones", "storage")
	assert.ErrorIs(t, err, apperror.ErrAlreadyAssigned)

	_, err = f.uc.AssignAttribute(ctx, "phones", "finish")
	assert.Equal(t, apperror.CodeMissingValues, apperror.CodeOf(err))

	_, err = f.uc.AssignAttribute(ctx, "phones", "nope")
	assert.Equal(t, apperror.CodeAttributeNotFound, apperror.CodeOf(err))

	_, err = f.uc.AssignAttribute(ctx, "tablets", "storage")
	assert.ErrorIs(t, err, apperror.ErrCategoryNotFound)

	assert.Len(t, f.repo.bindings["phones"], 2)
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, events.CategoryAttributesReplaced, f.publisher.events[0].EventType)
	assert.Equal(t, []string{"phones"}, f.publisher.events[0].Payload.CategoryIDs)
}

func TestGetCategoryResolvesAndCachesBindings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.AssignAttribute(ctx, "phones", "storage")
	require.NoError(t, err)
	_, err = f.uc.AssignAttribute(ctx, "phones", "brand")
	require.NoError(t, err)
	reads := f.repo.reads

	cat, err := f.uc.GetCategory(ctx, "phones")
	require.NoError(t, err)
	require.Len(t, cat.CategoryAttributes, 2)
	assert.Equal(t, "Storage", cat.CategoryAttributes[0].Attribute.Name)
	assert.Len(t, cat.CategoryAttributes[0].Attribute.AttributeValues, 2)

	_, err = f.uc.GetCategory(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, reads+1, f.repo.reads, "second read is served from cache")

	require.NoError(t, f.uc.InvalidateCategories(ctx, "phones"))
	_, err = f.uc.GetCategory(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, reads+2, f.repo.reads)
}

func TestEditsInvalidateCachedBindings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.AssignAttribute(ctx, "phones", "storage")
	require.NoError(t, err)

	before, err := f.uc.Bindings(ctx, "phones")
	require.NoError(t, err)
	assert.False(t, before[0].IsRequired)

	toggled, err := f.uc.ToggleRequired(ctx, "phones", "storage")
	require.NoError(t, err)
	assert.True(t, toggled.IsRequired)

	after, err := f.uc.Bindings(ctx, "phones")
	require.NoError(t, err)
	assert.True(t, after[0].IsRequired)
}

func TestReorderAndUnassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"storage", "color", "brand"} {
		_, err := f.uc.AssignAttribute(ctx, "phones", id)
		require.NoError(t, err)
	}

	list, err := f.uc.ReorderAttributes(ctx, &dto.ReorderInput{CategoryID: "phones", FromIndex: 2, ToIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"brand", "storage", "color"}, attributeIDs(list))

	_, err = f.uc.ReorderAttributes(ctx, &dto.ReorderInput{CategoryID: "phones", FromIndex: 3, ToIndex: 0})
	assert.Equal(t, apperror.CodeOutOfRange, apperror.CodeOf(err))

	require.NoError(t, f.uc.UnassignAttribute(ctx, "phones", "storage"))
	got, err := f.uc.Bindings(ctx, "phones")
	require.NoError(t, err)
	assert.Equal(t, []string{"brand", "color"}, attributeIDs(got))
	assert.Equal(t, 1, got[0].SortOrder)
	assert.Equal(t, 3, got[1].SortOrder)

	err = f.uc.UnassignAttribute(ctx, "phones", "storage")
	assert.Equal(t, apperror.CodeBindingNotFound, apperror.CodeOf(err))
}

func TestReplaceBindings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.uc.ReplaceBindings(ctx, "phones", []model.CategoryAttribute{
		{AttributeID: "color", SortOrder: 5},
		{AttributeID: "storage", SortOrder: 2, IsRequired: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"storage", "color"}, attributeIDs(out))
	assert.Equal(t, 1, out[0].SortOrder)
	assert.True(t, out[0].IsRequired)
	assert.NotNil(t, out[0].Attribute)

	_, err = f.uc.ReplaceBindings(ctx, "phones", []model.CategoryAttribute{{AttributeID: "finish"}})
	assert.Equal(t, apperror.CodeMissingValues, apperror.CodeOf(err))
	assert.Len(t, f.repo.bindings["phones"], 2, "rejected replace leaves bindings untouched")

	_, err = f.uc.ReplaceBindings(ctx, "phones", []model.CategoryAttribute{{AttributeID: "storage"}, {AttributeID: "storage"}})
	assert.ErrorIs(t, err, apperror.ErrAlreadyAssigned)

	out, err = f.uc.ReplaceBindings(ctx, "phones", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, f.repo.bindings["phones"])
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat, err := f.uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "Phone Cases", ParentID: ptr("phones")})
	require.NoError(t, err)
	assert.Equal(t, "phone-cases", cat.Slug)
	assert.True(t, cat.IsActive)
	assert.Nil(t, cat.Description)

	_, err = f.uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "Smartphones"})
	assert.Equal(t, apperror.CodeSlugTaken, apperror.CodeOf(err))

	_, err = f.uc.CreateCategory(ctx, &dto.CreateCategoryInput{Name: "Orphans", ParentID: ptr("missing")})
	assert.ErrorIs(t, err, apperror.ErrCategoryNotFound)
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.UpdateCategory(context.Background(), &dto.UpdateCategoryInput{ID: "phones", ParentID: ptr("phones")})
	assert.True(t, apperror.IsValidation(err))

	name := "Mobile Phones"
	cat, err := f.uc.UpdateCategory(context.Background(), &dto.UpdateCategoryInput{ID: "phones", Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Mobile Phones", cat.Name)
	assert.Equal(t, "smartphones", cat.Slug)
}

func TestDeleteCategoryPublishes(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.uc.DeleteCategory(context.Background(), "phones"))
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.CategoryDeleted, f.publisher.events[0].EventType)

	err := f.uc.DeleteCategory(context.Background(), "phones")
	assert.ErrorIs(t, err, apperror.ErrCategoryNotFound)
}

func TestBuildTree(t *testing.T) {
	flat := []model.Category{
		{BaseModel: model.BaseModel{ID: "root"}},
		{BaseModel: model.BaseModel{ID: "child"}, ParentID: ptr("root")},
		{BaseModel: model.BaseModel{ID: "grandchild"}, ParentID: ptr("child")},
		{BaseModel: model.BaseModel{ID: "detached"}, ParentID: ptr("elsewhere")},
	}
	tree := buildTree(flat)
	require.Len(t, tree, 2)
	assert.Equal(t, "root", tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "grandchild", tree[0].Children[0].Children[0].ID)
	assert.Equal(t, "detached", tree[1].ID)
}

func ptr[T any](v T) *T { return &v }
