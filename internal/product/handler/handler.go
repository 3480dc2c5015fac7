package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/httpx"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/product"
	"github.com/fekuna/omnipos-attribute-service/internal/product/dto"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Register(r gin.IRouter) {
	g := r.Group("/products")
	g.GET("", h.ListProducts)
	g.POST("", h.CreateProduct)
	g.GET("/search", h.SearchProducts)
	g.POST("/variants/generate", h.GenerateVariants)
	g.GET("/:id", h.GetProduct)
	g.PUT("/:id", h.UpdateProduct)
	g.DELETE("/:id", h.DeleteProduct)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Debug("create product rejected", zap.Error(err))
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, pageSize := httpx.Pagination(c)
	filters := &dto.ProductFilters{
		CategoryID:  c.Query("categoryId"),
		IsActive:    httpx.OptionalBool(c, "isActive"),
		SearchQuery: c.Query("q"),
		MinPrice:    httpx.OptionalFloat(c, "minPrice"),
		MaxPrice:    httpx.OptionalFloat(c, "maxPrice"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
		Page:        page,
		PageSize:    pageSize,
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	c.JSON(http.StatusOK, httpx.ListBody{Items: products, Total: total, Page: page, PageSize: pageSize})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	input.ID = c.Param("id")

	p, err := h.uc.UpdateProduct(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchProducts reads facet filters as facets[<slug>]=v1,v2.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	page, pageSize := httpx.Pagination(c)
	input := &dto.SearchInput{
		Query:      c.Query("q"),
		CategoryID: c.Query("categoryId"),
		Facets:     map[string][]string{},
		MinPrice:   httpx.OptionalFloat(c, "minPrice"),
		MaxPrice:   httpx.OptionalFloat(c, "maxPrice"),
		Page:       page,
		PageSize:   pageSize,
	}
	for slug, raw := range c.QueryMap("facets") {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				input.Facets[slug] = append(input.Facets[slug], v)
			}
		}
	}

	res, err := h.uc.SearchProducts(c.Request.Context(), input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) GenerateVariants(c *gin.Context) {
	var input dto.GenerateVariantsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	variants, err := h.uc.GenerateVariants(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, variants)
}
