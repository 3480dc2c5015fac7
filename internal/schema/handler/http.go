package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-attribute-service/internal/httpx"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
)

type SchemaHandler struct {
	compiler *schema.Compiler
	logger   logger.ZapLogger
}

func NewSchemaHandler(compiler *schema.Compiler, log logger.ZapLogger) *SchemaHandler {
	return &SchemaHandler{
		compiler: compiler,
		logger:   log,
	}
}

func (h *SchemaHandler) Register(r gin.IRouter) {
	r.GET("/categories/:id/schema", h.GetSchema)
	r.POST("/categories/:id/validate", h.Validate)
}

func (h *SchemaHandler) GetSchema(c *gin.Context) {
	s, err := h.compiler.CompileCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

type validateRequest struct {
	AttributeValues map[string]interface{} `json:"attributeValues"`
}

// Validate always answers 200 with the result; failures are listed per
// attribute in the body.
func (h *SchemaHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	s, err := h.compiler.CompileCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, validate(s, req.AttributeValues))
}
