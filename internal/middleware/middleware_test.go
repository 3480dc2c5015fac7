package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/fekuna/omnipos-attribute-service/internal/auth"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
)

func TestHTTPActorAndLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	log := logger.NewFromZap(zap.New(core))

	r := gin.New()
	r.Use(Recovery(log), Actor(), RequestLogger(log))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, auth.GetActor(c.Request.Context()))
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Actor-ID", "admin-7")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-7", w.Body.String())

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/whoami", entries[0].ContextMap()["path"])
	assert.Equal(t, "admin-7", entries[0].ContextMap()["actor"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestContextInterceptor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	interceptor := ContextInterceptor(logger.NewFromZap(zap.New(core)))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.ActorHeader, "admin-9"))
	info := &grpc.UnaryServerInfo{FullMethod: "/omnipos.catalog.v1.SchemaService/CompileSchema"}

	var seen string
	resp, err := interceptor(ctx, "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = auth.GetActor(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "admin-9", seen)

	entries := logs.FilterMessage("grpc request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "OK", entries[0].ContextMap()["code"])
}
