package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute"
	"github.com/fekuna/omnipos-attribute-service/internal/cache"
	"github.com/fekuna/omnipos-attribute-service/internal/category"
	"github.com/fekuna/omnipos-attribute-service/internal/form"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/variant"
)

// Config tunes the product use case; zero fields take the defaults.
type Config struct {
	ListCacheTTL time.Duration
	Index        string
}

const (
	defaultListCacheTTL = 5 * time.Minute
	defaultIndex        = "products"
)

// Indexer is the search index the product use case keeps in sync.
// *search.Client satisfies it.
type Indexer interface {
	Searcher
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
}

type productUseCase struct {
	repo       product.Repository
	categories category.UseCase
	attributes attribute.Repository
	compiler   *schema.Compiler
	cache      cache.Cache
	es         Indexer
	listTTL    time.Duration
	index      string
	logger     logger.ZapLogger
}

// NewProductUseCase wires the product pipeline. es may be nil, in which case
// search falls back to the database.
func NewProductUseCase(
	repo product.Repository,
	categories category.UseCase,
	attributes attribute.Repository,
	c cache.Cache,
	es Indexer,
	cfg Config,
	log logger.ZapLogger,
) product.UseCase {
	if cfg.ListCacheTTL <= 0 {
		cfg.ListCacheTTL = defaultListCacheTTL
	}
	if cfg.Index == "" {
		cfg.Index = defaultIndex
	}
	return &productUseCase{
		repo:       repo,
		categories: categories,
		attributes: attributes,
		compiler:   schema.NewCompiler(categories, schema.WithShapeChecks()),
		cache:      c,
		es:         es,
		listTTL:    cfg.ListCacheTTL,
		index:      cfg.Index,
		logger:     log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	unique, err := uc.repo.IsSKUUnique(ctx, strings.TrimSpace(input.SKU), "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperror.New(apperror.KindConflict, apperror.CodeDuplicateSKU, "SKU already exists")
	}

	draft, compiled, err := uc.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		IsActive:  true,
	}
	apply(p, input, draft)

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateProductCache(context.Background())
	go uc.syncToElastic(context.Background(), p, compiled)

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NewNotFound(apperror.CodeProductNotFound, id)
	}
	return p, nil
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey, err := generateCacheKey(filters)
	if err == nil {
		var cached cachedList
		found, err := uc.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		}
		if found {
			return cached.Products, cached.Count, nil
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, cachedList{Products: products, Count: count}, uc.listTTL); err != nil {
			uc.logger.Warn("product list cache write failed", zap.Error(err))
		}
	}
	return products, count, nil
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context) {
	if err := uc.cache.DeletePattern(ctx, "products:list:*"); err != nil {
		uc.logger.Warn("product list cache invalidation failed", zap.Error(err))
	}
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if sku := strings.TrimSpace(input.SKU); sku != p.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, sku, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperror.New(apperror.KindConflict, apperror.CodeDuplicateSKU, "SKU already exists")
		}
	}

	draft, compiled, err := uc.prepare(ctx, &input.CreateProductInput)
	if err != nil {
		return nil, err
	}

	apply(p, &input.CreateProductInput, draft)
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateProductCache(context.Background())
	go uc.syncToElastic(context.Background(), p, compiled)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // already gone
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.invalidateProductCache(context.Background())
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), uc.index, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.String("product_id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *productUseCase) GenerateVariants(ctx context.Context, input *dto.GenerateVariantsInput) ([]model.Variant, error) {
	m, err := uc.variantManager(ctx, input.Dimensions, input.Existing)
	if err != nil {
		return nil, err
	}
	if _, err := m.Generate(input.BaseSKU, input.Selection); err != nil {
		return nil, err
	}
	return m.Variants(), nil
}

// prepare runs the input through a form session: the category's schema
// validates and normalises the attribute values, the variant manager checks
// the variant rows.
func (uc *productUseCase) prepare(ctx context.Context, input *dto.CreateProductInput) (form.Draft, *schema.CompiledSchema, error) {
	categoryID := strings.TrimSpace(input.CategoryID)
	if categoryID != "" {
		if _, err := uc.categories.GetCategory(ctx, categoryID); err != nil {
			return form.Draft{}, nil, err
		}
	}
	if strings.TrimSpace(input.SKU) == "" {
		return form.Draft{}, nil, apperror.NewValidation(apperror.CodeRequired, "sku", "sku is required")
	}

	m, err := uc.variantManager(ctx, input.Dimensions, input.Variants)
	if err != nil {
		return form.Draft{}, nil, err
	}

	session := form.NewSession(uc.compiler, m, uc.logger)
	defer session.Close()

	select {
	case <-session.SelectCategory(ctx, categoryID):
	case <-ctx.Done():
		return form.Draft{}, nil, ctx.Err()
	}
	if err := session.Err(); err != nil {
		return form.Draft{}, nil, err
	}

	session.Edit(func(d *form.Draft) {
		d.Name = strings.TrimSpace(input.Name)
		d.SKU = strings.TrimSpace(input.SKU)
		d.Price = input.Price
		d.Description = input.Description
		d.Tags = input.Tags
		d.Images = input.Images
	})
	session.SetAttributes(input.AttributeValues)

	draft, err := session.Submit()
	if err != nil {
		return form.Draft{}, nil, err
	}
	return draft, session.Schema(), nil
}

func (uc *productUseCase) variantManager(ctx context.Context, dimensions []string, variants []model.Variant) (*variant.Manager, error) {
	var attrs []model.Attribute
	if len(dimensions) > 0 {
		found, err := uc.attributes.FindByIDs(ctx, dimensions)
		if err != nil {
			return nil, err
		}
		attrs = found
	}

	m := variant.NewManager(attrs)
	if err := m.Load(dimensions, variants); err != nil {
		return nil, err
	}
	return m, nil
}

func apply(p *model.Product, input *dto.CreateProductInput, draft form.Draft) {
	p.CategoryID = nil
	if id := strings.TrimSpace(input.CategoryID); id != "" {
		p.CategoryID = &id
	}
	p.SKU = draft.SKU
	p.Name = draft.Name
	p.Description = nil
	if draft.Description != "" {
		desc := draft.Description
		p.Description = &desc
	}
	p.Price = draft.Price
	p.SalePrice = input.SalePrice
	p.Stock = input.Stock
	p.Tags = pq.StringArray(nonNil(draft.Tags))
	p.Images = pq.StringArray(nonNil(draft.Images))
	p.AttributeValues = model.AttributeValueMap(draft.Attributes)
	p.Dimensions = pq.StringArray(nonNil(input.Dimensions))
	p.Variants = draft.Variants
	for i := range p.Variants {
		if _, err := uuid.Parse(p.Variants[i].ID); err != nil {
			p.Variants[i].ID = uuid.New().String()
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
