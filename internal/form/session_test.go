package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/variant"
)

var storage = &model.Attribute{
	BaseModel: model.BaseModel{ID: "storage"},
	Name:      "Storage",
	Type:      model.AttributeTypeSelect,
	AttributeValues: []model.AttributeValue{
		{ID: "128gb-id", Value: "128", Order: 1},
		{ID: "256gb-id", Value: "256", Order: 2},
	},
}

var material = &model.Attribute{
	BaseModel: model.BaseModel{ID: "material"},
	Name:      "Material",
	Type:      model.AttributeTypeText,
}

// gatedSource serves fixed bindings per category. A category listed in gates
// blocks until its channel is closed or the context is cancelled.
type gatedSource struct {
	mu       sync.Mutex
	bindings map[string][]model.CategoryAttribute
	gates    map[string]chan struct{}
	fail     map[string]error
}

func (g *gatedSource) Bindings(ctx context.Context, categoryID string) ([]model.CategoryAttribute, error) {
	g.mu.Lock()
	gate := g.gates[categoryID]
	err := g.fail[categoryID]
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return g.bindings[categoryID], nil
}

func (g *gatedSource) setFail(categoryID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[categoryID] = err
}

func newSource() *gatedSource {
	return &gatedSource{
		bindings: map[string][]model.CategoryAttribute{
			"phones": {
				{CategoryID: "phones", AttributeID: "storage", IsRequired: true, SortOrder: 1, Attribute: storage},
			},
			"shirts": {
				{CategoryID: "shirts", AttributeID: "material", IsRequired: false, SortOrder: 1, Attribute: material},
			},
		},
		gates: map[string]chan struct{}{},
		fail:  map[string]error{},
	}
}

func newSession(src *gatedSource) *Session {
	return NewSession(
		schema.NewCompiler(src, schema.WithShapeChecks()),
		variant.NewManager([]model.Attribute{*storage}),
		logger.NewNop(),
	)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("schema fetch did not settle")
	}
}

func TestSelectCategoryResetsOnlyAttributes(t *testing.T) {
	s := newSession(newSource())
	defer s.Close()

	wait(t, s.SelectCategory(context.Background(), "phones"))
	s.Edit(func(d *Draft) {
		d.Name = "Pixel"
		d.SKU = "PX-1"
		d.Price = decimal.NewFromInt(699)
		d.Tags = []string{"android"}
	})
	s.SetAttribute("storage", "128gb-id")

	wait(t, s.SelectCategory(context.Background(), "shirts"))

	d := s.Draft()
	assert.Equal(t, "shirts", d.CategoryID)
	assert.Empty(t, d.Attributes)
	assert.Equal(t, "Pixel", d.Name)
	assert.Equal(t, "PX-1", d.SKU)
	assert.True(t, d.Price.Equal(decimal.NewFromInt(699)))
	assert.Equal(t, []string{"android"}, d.Tags)

	assert.Equal(t, StatusReady, s.Status())
	f, ok := s.Schema().Field("material")
	require.True(t, ok)
	assert.False(t, f.IsRequired)
}

func TestEditCannotTouchCategoryOrAttributes(t *testing.T) {
	s := newSession(newSource())
	defer s.Close()
	wait(t, s.SelectCategory(context.Background(), "phones"))
	s.SetAttribute("storage", "128gb-id")

	s.Edit(func(d *Draft) {
		d.CategoryID = "shirts"
		d.Attributes = nil
		d.Name = "x"
	})

	d := s.Draft()
	assert.Equal(t, "phones", d.CategoryID)
	assert.Equal(t, "128gb-id", d.Attributes["storage"])
	assert.Equal(t, "x", d.Name)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	src := newSource()
	gate := make(chan struct{})
	src.gates["phones"] = gate

	s := newSession(src)
	defer s.Close()

	first := s.SelectCategory(context.Background(), "phones")
	assert.Equal(t, StatusLoading, s.Status())

	second := s.SelectCategory(context.Background(), "shirts")
	wait(t, second)
	close(gate)
	wait(t, first)

	assert.Equal(t, StatusReady, s.Status())
	assert.Equal(t, "shirts", s.Draft().CategoryID)
	_, ok := s.Schema().Field("material")
	assert.True(t, ok)
	_, ok = s.Schema().Field("storage")
	assert.False(t, ok)
	assert.NoError(t, s.Err())
}

func TestFetchFailureDegradesAndRetries(t *testing.T) {
	src := newSource()
	src.setFail("phones", errors.New("connection refused"))

	s := newSession(src)
	defer s.Close()
	s.Edit(func(d *Draft) { d.Name = "Pixel" })

	wait(t, s.SelectCategory(context.Background(), "phones"))
	assert.Equal(t, StatusDegraded, s.Status())
	assert.Error(t, s.Err())
	assert.True(t, s.Schema().Hidden())

	_, err := s.Submit()
	assert.NoError(t, err, "a degraded schema does not block the form")

	src.setFail("phones", nil)
	wait(t, s.Retry(context.Background()))
	assert.Equal(t, StatusReady, s.Status())
	assert.NoError(t, s.Err())
	assert.Equal(t, 1, s.Schema().Len())
}

func TestSubmit(t *testing.T) {
	s := newSession(newSource())
	defer s.Close()
	wait(t, s.SelectCategory(context.Background(), "phones"))

	_, err := s.Submit()
	require.Error(t, err)
	fields := apperror.FieldsOf(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "name", fields[0].Field)
	assert.Equal(t, "storage", fields[1].Field)

	s.Edit(func(d *Draft) { d.Name = "Pixel" })
	s.SetAttributes(map[string]interface{}{"storage": "256gb-id", "stale": true})
	require.NoError(t, s.EditVariants(func(m *variant.Manager) error {
		if err := m.AddDimension("storage"); err != nil {
			return err
		}
		_, err := m.Generate("PX", nil)
		return err
	}))

	d, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"storage": "256gb-id"}, d.Attributes)
	require.Len(t, d.Variants, 2)
	assert.Equal(t, "PX-128", d.Variants[0].SKU)
}

func TestSubmitWhileLoading(t *testing.T) {
	src := newSource()
	gate := make(chan struct{})
	src.gates["phones"] = gate
	s := newSession(src)
	defer s.Close()

	done := s.SelectCategory(context.Background(), "phones")
	_, err := s.Submit()
	assert.True(t, apperror.IsValidation(err))

	close(gate)
	wait(t, done)
}

func TestProperty_CategorySwitchKeepsScalarFields(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("switching category only clears attributes", prop.ForAll(
		func(name, sku string, price int64, toShirts bool) bool {
			s := newSession(newSource())
			defer s.Close()

			<-s.SelectCategory(context.Background(), "phones")
			s.Edit(func(d *Draft) {
				d.Name = name
				d.SKU = sku
				d.Price = decimal.NewFromInt(price)
			})
			s.SetAttribute("storage", "128gb-id")

			next := "phones"
			if toShirts {
				next = "shirts"
			}
			<-s.SelectCategory(context.Background(), next)

			d := s.Draft()
			return d.Name == name && d.SKU == sku && d.Price.Equal(decimal.NewFromInt(price)) &&
				len(d.Attributes) == 0 && d.CategoryID == next
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Int64Range(0, 100000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
