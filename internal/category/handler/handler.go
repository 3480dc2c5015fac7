package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/category"
	"github.com/fekuna/omnipos-attribute-service/internal/category/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/httpx"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Register(r gin.IRouter) {
	g := r.Group("/categories")
	g.GET("", h.ListCategories)
	g.POST("", h.CreateCategory)
	g.GET("/:id", h.GetCategory)
	g.PATCH("/:id", h.UpdateCategory)
	g.DELETE("/:id", h.DeleteCategory)

	g.POST("/:id/attributes", h.AssignAttribute)
	g.POST("/:id/attributes/reorder", h.ReorderAttributes)
	g.DELETE("/:id/attributes/:attributeId", h.UnassignAttribute)
	g.PATCH("/:id/attributes/:attributeId/required", h.ToggleRequired)

	r.POST("/category-attributes/assign", h.ReplaceBindings)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input dto.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	cat, err := h.uc.CreateCategory(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	cat, err := h.uc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	page, pageSize := httpx.Pagination(c)
	filters := &dto.CategoryFilters{
		IsActive:        httpx.OptionalBool(c, "isActive"),
		Search:          c.Query("q"),
		IncludeChildren: c.Query("includeChildren") == "true",
		Page:            page,
		PageSize:        pageSize,
	}
	if parentID, ok := c.GetQuery("parentId"); ok {
		filters.ParentID = &parentID
	}

	categories, total, err := h.uc.ListCategories(c.Request.Context(), filters)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	c.JSON(http.StatusOK, httpx.ListBody{Items: categories, Total: total, Page: page, PageSize: pageSize})
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var input dto.UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	input.ID = c.Param("id")

	cat, err := h.uc.UpdateCategory(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.uc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	AttributeID string `json:"attributeId" binding:"required"`
}

func (h *CategoryHandler) AssignAttribute(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	b, err := h.uc.AssignAttribute(c.Request.Context(), c.Param("id"), req.AttributeID)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *CategoryHandler) UnassignAttribute(c *gin.Context) {
	if err := h.uc.UnassignAttribute(c.Request.Context(), c.Param("id"), c.Param("attributeId")); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) ToggleRequired(c *gin.Context) {
	b, err := h.uc.ToggleRequired(c.Request.Context(), c.Param("id"), c.Param("attributeId"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *CategoryHandler) ReorderAttributes(c *gin.Context) {
	var input dto.ReorderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	input.CategoryID = c.Param("id")

	list, err := h.uc.ReorderAttributes(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ReplaceBindings takes the full binding list of one category. The category
// comes from the entries themselves, or from ?categoryId when clearing.
func (h *CategoryHandler) ReplaceBindings(c *gin.Context) {
	var list []model.CategoryAttribute
	if err := c.ShouldBindJSON(&list); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	categoryID := c.Query("categoryId")
	for _, b := range list {
		if categoryID == "" {
			categoryID = b.CategoryID
		}
		if b.CategoryID != "" && b.CategoryID != categoryID {
			httpx.RespondError(c, h.logger, apperror.NewValidation(apperror.CodeInvalidInput, "categoryId",
				"all bindings must belong to the same category"))
			return
		}
	}
	if categoryID == "" {
		httpx.RespondError(c, h.logger, apperror.NewValidation(apperror.CodeRequired, "categoryId", "categoryId is required"))
		return
	}

	out, err := h.uc.ReplaceBindings(c.Request.Context(), categoryID, list)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}

	h.logger.Info("category bindings replaced",
		zap.String("category_id", categoryID),
		zap.Int("count", len(out)),
	)
	c.JSON(http.StatusOK, out)
}
