package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/attribute"
	"github.com/fekuna/omnipos-attribute-service/internal/attribute/dto"
	"github.com/fekuna/omnipos-attribute-service/internal/httpx"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
)

type AttributeHandler struct {
	uc     attribute.UseCase
	logger logger.ZapLogger
}

func NewAttributeHandler(uc attribute.UseCase, log logger.ZapLogger) *AttributeHandler {
	return &AttributeHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AttributeHandler) Register(r gin.IRouter) {
	g := r.Group("/attributes")
	g.GET("", h.ListAttributes)
	g.POST("", h.CreateAttribute)
	g.GET("/:id", h.GetAttribute)
	g.PATCH("/:id", h.UpdateAttribute)
	g.DELETE("/:id", h.DeleteAttribute)
	g.POST("/:id/values", h.AddValue)
	g.DELETE("/:id/values/:valueId", h.RemoveValue)
}

func (h *AttributeHandler) CreateAttribute(c *gin.Context) {
	var input dto.CreateAttributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	attr, err := h.uc.CreateAttribute(c.Request.Context(), &input)
	if err != nil {
		h.logger.Debug("create attribute rejected", zap.Error(err))
		httpx.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, attr)
}

func (h *AttributeHandler) GetAttribute(c *gin.Context) {
	attr, err := h.uc.GetAttribute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, attr)
}

func (h *AttributeHandler) ListAttributes(c *gin.Context) {
	page, pageSize := httpx.Pagination(c)
	filters := &dto.AttributeFilters{
		Type:         model.AttributeType(c.Query("type")),
		IsFilterable: httpx.OptionalBool(c, "isFilterable"),
		Search:       c.Query("q"),
		Page:         page,
		PageSize:     pageSize,
	}

	attrs, total, err := h.uc.ListAttributes(c.Request.Context(), filters)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	if attrs == nil {
		attrs = []model.Attribute{}
	}

	c.JSON(http.StatusOK, httpx.ListBody{Items: attrs, Total: total, Page: page, PageSize: pageSize})
}

func (h *AttributeHandler) UpdateAttribute(c *gin.Context) {
	var input dto.UpdateAttributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}
	input.ID = c.Param("id")

	attr, err := h.uc.UpdateAttribute(c.Request.Context(), &input)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, attr)
}

func (h *AttributeHandler) DeleteAttribute(c *gin.Context) {
	res, err := h.uc.DeleteAttribute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type addValueRequest struct {
	Value string `json:"value" binding:"required"`
}

func (h *AttributeHandler) AddValue(c *gin.Context) {
	var req addValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	res, err := h.uc.AddValue(c.Request.Context(), c.Param("id"), req.Value)
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AttributeHandler) RemoveValue(c *gin.Context) {
	if err := h.uc.RemoveValue(c.Request.Context(), c.Param("id"), c.Param("valueId")); err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
