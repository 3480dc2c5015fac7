package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/search"
)

const (
	facetSeparator = "="
	facetAggName   = "facets"
	facetAggSize   = 500
)

const productMapping = `{
	"mappings": {
		"properties": {
			"categoryId": { "type": "keyword" },
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"price": { "type": "double" },
			"salePrice": { "type": "double" },
			"tags": { "type": "keyword" },
			"isActive": { "type": "boolean" },
			"facetKeys": { "type": "keyword" },
			"facets": { "type": "object", "enabled": false },
			"attributeValues": { "type": "object", "enabled": false },
			"variants": { "type": "object", "enabled": false },
			"createdAt": { "type": "date" },
			"updatedAt": { "type": "date" }
		}
	}
}`

type Searcher interface {
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
}

// productDocument is the indexed form of a product. FacetKeys holds one
// "slug=value" entry per filterable attribute value.
type productDocument struct {
	*model.Product
	FacetKeys []string            `json:"facetKeys"`
	Facets    map[string][]string `json:"facets"`
}

func newProductDocument(p *model.Product, compiled *schema.CompiledSchema) productDocument {
	doc := productDocument{Product: p, FacetKeys: []string{}, Facets: map[string][]string{}}
	if compiled == nil {
		return doc
	}

	for _, dv := range compiled.Display(p.AttributeValues) {
		f, ok := compiled.Field(dv.AttributeID)
		if !ok || !f.Attribute.IsFilterable {
			continue
		}
		key := dv.Slug
		if key == "" {
			key = dv.AttributeID
		}
		values := dv.Entries
		if len(values) == 0 {
			values = []string{dv.Text}
		}
		for _, v := range values {
			doc.FacetKeys = append(doc.FacetKeys, key+facetSeparator+v)
		}
		doc.Facets[key] = values
	}
	return doc
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product, compiled *schema.CompiledSchema) {
	if uc.es == nil {
		return
	}
	// Lazily ensure the index; a migration job would normally own this.
	if err := uc.es.CreateIndex(ctx, uc.index, productMapping); err != nil {
		uc.logger.Warn("failed to ensure product index", zap.Error(err))
	}

	if err := uc.es.Index(ctx, uc.index, p.ID, newProductDocument(p, compiled)); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

// SearchProducts queries the search index. Without an index it falls back to
// the database, which cannot filter by facets.
func (uc *productUseCase) SearchProducts(ctx context.Context, input *dto.SearchInput) (*dto.SearchResult, error) {
	if uc.es == nil {
		if len(input.Facets) > 0 {
			return nil, apperror.New(apperror.KindUnsupported, apperror.CodeInvalidInput,
				"facet filters need the search index")
		}
		return uc.searchDatabase(ctx, input)
	}

	res, err := uc.es.Search(ctx, uc.index, buildSearchQuery(input))
	if err != nil {
		if len(input.Facets) > 0 {
			return nil, apperror.NewInternal("search products", err)
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
		return uc.searchDatabase(ctx, input)
	}

	out := &dto.SearchResult{
		Items:  make([]model.Product, 0, len(res.Hits.Hits)),
		Total:  res.Hits.Total.Value,
		Facets: map[string]map[string]int{},
	}
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			uc.logger.Warn("skipping undecodable search hit", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		out.Items = append(out.Items, p)
	}
	for _, b := range res.Aggregations[facetAggName].Buckets {
		slug, value, ok := strings.Cut(b.Key, facetSeparator)
		if !ok {
			continue
		}
		if out.Facets[slug] == nil {
			out.Facets[slug] = map[string]int{}
		}
		out.Facets[slug][value] = b.DocCount
	}
	return out, nil
}

func (uc *productUseCase) searchDatabase(ctx context.Context, input *dto.SearchInput) (*dto.SearchResult, error) {
	active := true
	products, total, err := uc.repo.FindAll(ctx, &dto.ProductFilters{
		CategoryID:  input.CategoryID,
		IsActive:    &active,
		SearchQuery: input.Query,
		MinPrice:    input.MinPrice,
		MaxPrice:    input.MaxPrice,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return &dto.SearchResult{Items: products, Total: total, Facets: map[string]map[string]int{}}, nil
}

func buildSearchQuery(input *dto.SearchInput) map[string]interface{} {
	must := []map[string]interface{}{}
	if q := strings.TrimSpace(input.Query); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"name^3", "sku", "description", "tags"},
			},
		})
	}

	filter := []map[string]interface{}{
		{"term": map[string]interface{}{"isActive": true}},
	}
	if input.CategoryID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"categoryId": input.CategoryID},
		})
	}

	slugs := make([]string, 0, len(input.Facets))
	for slug := range input.Facets {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		values := input.Facets[slug]
		if len(values) == 0 {
			continue
		}
		keys := make([]string, len(values))
		for i, v := range values {
			keys[i] = slug + facetSeparator + v
		}
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{"facetKeys": keys},
		})
	}

	if input.MinPrice != nil || input.MaxPrice != nil {
		bounds := map[string]interface{}{}
		if input.MinPrice != nil {
			bounds["gte"] = *input.MinPrice
		}
		if input.MaxPrice != nil {
			bounds["lte"] = *input.MaxPrice
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"price": bounds},
		})
	}

	page, size := input.Page, input.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"aggs": map[string]interface{}{
			facetAggName: map[string]interface{}{
				"terms": map[string]interface{}{"field": "facetKeys", "size": facetAggSize},
			},
		},
		"from": (page - 1) * size,
		"size": size,
	}
}
