// Package httpx holds the JSON response helpers shared by the gin handlers.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
)

type ErrorBody struct {
	Error  string                `json:"error"`
	Code   string                `json:"code,omitempty"`
	Fields []apperror.FieldError `json:"fields,omitempty"`
}

type ListBody struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// RespondError maps err onto an HTTP status. Internal errors are logged and
// their message is not leaked.
func RespondError(c *gin.Context, log logger.ZapLogger, err error) {
	status := apperror.HTTPStatus(err)
	body := ErrorBody{
		Error:  err.Error(),
		Code:   apperror.CodeOf(err),
		Fields: apperror.FieldsOf(err),
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body = ErrorBody{Error: "internal server error"}
	}

	c.AbortWithStatusJSON(status, body)
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg, Code: apperror.CodeInvalidInput})
}

// Pagination reads page and pageSize query params, defaulting to 1 and 20.
func Pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

// OptionalBool parses a boolean query param; absent or invalid gives nil.
func OptionalBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// OptionalFloat parses a numeric query param; absent or invalid gives nil.
func OptionalFloat(c *gin.Context, key string) *float64 {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
