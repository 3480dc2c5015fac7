package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/httpx"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
)

// stubUseCase records the inputs it receives; unset methods panic.
type stubUseCase struct {
	product.UseCase

	created *dto.CreateProductInput
	updated *dto.UpdateProductInput
	filters *dto.ProductFilters
	search  *dto.SearchInput
	deleted string
}

func (s *stubUseCase) CreateProduct(_ context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	s.created = input
	if input.Name == "" {
		return nil, apperror.NewValidationFields([]apperror.FieldError{
			{Field: "name", Code: apperror.CodeRequired, Message: "name is required"},
		})
	}
	return &model.Product{BaseModel: model.BaseModel{ID: "p-1"}, SKU: input.SKU, Name: input.Name, Price: input.Price}, nil
}

func (s *stubUseCase) GetProduct(_ context.Context, id string) (*model.Product, error) {
	return nil, apperror.NewNotFound(apperror.CodeProductNotFound, id)
}

func (s *stubUseCase) UpdateProduct(_ context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	s.updated = input
	return &model.Product{BaseModel: model.BaseModel{ID: input.ID}, Name: input.Name}, nil
}

func (s *stubUseCase) ListProducts(_ context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	s.filters = filters
	return nil, 0, nil
}

func (s *stubUseCase) DeleteProduct(_ context.Context, id string) error {
	s.deleted = id
	return nil
}

func (s *stubUseCase) SearchProducts(_ context.Context, input *dto.SearchInput) (*dto.SearchResult, error) {
	s.search = input
	return &dto.SearchResult{Items: []model.Product{}, Facets: map[string]map[string]int{"color": {"Black": 2}}}, nil
}

func newRouter(uc product.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewProductHandler(uc, logger.NewNop()).Register(r)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProduct(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodPost, "/products",
		`{"sku":"PX","name":"Pixel","price":"899.50","attributeValues":{"storage":"128gb-id"},"dimensions":["color"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, uc.created)
	assert.True(t, uc.created.Price.Equal(decimal.RequireFromString("899.5")))
	assert.Equal(t, "128gb-id", uc.created.AttributeValues["storage"])
	assert.Equal(t, []string{"color"}, uc.created.Dimensions)

	w = do(r, http.MethodPost, "/products", `{"sku":"PX"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "name", body.Fields[0].Field)

	w = do(r, http.MethodPost, "/products", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUpdateDeleteProduct(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodGet, "/products/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeProductNotFound, body.Code)

	w = do(r, http.MethodPut, "/products/p-9", `{"sku":"PX","name":"Pixel 9","isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-9", uc.updated.ID)
	require.NotNil(t, uc.updated.IsActive)
	assert.False(t, *uc.updated.IsActive)

	w = do(r, http.MethodDelete, "/products/p-9", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "p-9", uc.deleted)
}

func TestListProducts(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodGet, "/products?isActive=true&minPrice=10&maxPrice=oops&page=2&sortBy=price", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.filters.IsActive)
	assert.True(t, *uc.filters.IsActive)
	require.NotNil(t, uc.filters.MinPrice)
	assert.Equal(t, 10.0, *uc.filters.MinPrice)
	assert.Nil(t, uc.filters.MaxPrice)
	assert.Equal(t, 2, uc.filters.Page)
	assert.Equal(t, "price", uc.filters.SortBy)
	assert.JSONEq(t, `{"items":[],"total":0,"page":2,"pageSize":20}`, w.Body.String())
}

func TestSearchProductsReadsFacets(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc)

	w := do(r, http.MethodGet, "/products/search?q=phone&facets[color]=Black,%20White&facets[storage]=128&facets[empty]=", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "phone", uc.search.Query)
	assert.Equal(t, map[string][]string{
		"color":   {"Black", "White"},
		"storage": {"128"},
	}, uc.search.Facets)

	var res dto.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Facets["color"]["Black"])
}
