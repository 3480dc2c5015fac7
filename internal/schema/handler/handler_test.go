package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
)

type fixedSource map[string][]model.CategoryAttribute

func (s fixedSource) Bindings(_ context.Context, categoryID string) ([]model.CategoryAttribute, error) {
	b, ok := s[categoryID]
	if !ok {
		return nil, apperror.NewNotFound(apperror.CodeCategoryNotFound, categoryID)
	}
	return b, nil
}

func newCompiler() *schema.Compiler {
	storage := &model.Attribute{
		BaseModel: model.BaseModel{ID: "storage"},
		Name:      "Storage",
		Type:      model.AttributeTypeSelect,
		AttributeValues: []model.AttributeValue{
			{ID: "64gb-id", Value: "64", Order: 1},
			{ID: "128gb-id", Value: "128", Order: 2},
		},
	}
	color := &model.Attribute{
		BaseModel:       model.BaseModel{ID: "color"},
		Name:            "Color",
		Type:            model.AttributeTypeMultiSelect,
		AttributeValues: []model.AttributeValue{{ID: "black-id", Value: "Black", Order: 1}},
	}
	return schema.NewCompiler(fixedSource{
		"smartphones": {
			{AttributeID: "storage", IsRequired: true, SortOrder: 1, Attribute: storage},
			{AttributeID: "color", SortOrder: 2, Attribute: color},
		},
		"gift-cards": nil,
	}, schema.WithShapeChecks())
}

func dialSchemaService(t *testing.T) rpc.SchemaServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterSchemaServiceServer(srv, NewSchemaGRPCHandler(newCompiler(), logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return rpc.NewSchemaServiceClient(conn)
}

func TestGRPCCompileSchema(t *testing.T) {
	client := dialSchemaService(t)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]interface{}{"categoryId": "smartphones"})
	require.NoError(t, err)
	res, err := client.CompileSchema(ctx, req)
	require.NoError(t, err)

	out := res.AsMap()
	assert.Equal(t, false, out["hidden"])
	fields := out["fields"].([]interface{})
	require.Len(t, fields, 2)
	assert.Equal(t, "storage", fields[0].(map[string]interface{})["attributeId"])

	empty, err := structpb.NewStruct(map[string]interface{}{"categoryId": "gift-cards"})
	require.NoError(t, err)
	res, err = client.CompileSchema(ctx, empty)
	require.NoError(t, err)
	assert.Equal(t, true, res.AsMap()["hidden"])

	missing, err := structpb.NewStruct(map[string]interface{}{"categoryId": "unknown"})
	require.NoError(t, err)
	_, err = client.CompileSchema(ctx, missing)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.CompileSchema(ctx, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCValidateAttributes(t *testing.T) {
	client := dialSchemaService(t)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]interface{}{
		"categoryId": "smartphones",
		"values": map[string]interface{}{
			"storage": "",
			"color":   []interface{}{},
		},
	})
	require.NoError(t, err)
	res, err := client.ValidateAttributes(ctx, req)
	require.NoError(t, err)
	out := res.AsMap()
	assert.Equal(t, false, out["valid"])
	errs := out["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "storage", errs[0].(map[string]interface{})["field"])

	req, err = structpb.NewStruct(map[string]interface{}{
		"categoryId": "smartphones",
		"values": map[string]interface{}{
			"storage": "128gb-id",
			"color":   []interface{}{"black-id", "Teal"},
		},
	})
	require.NoError(t, err)
	res, err = client.ValidateAttributes(ctx, req)
	require.NoError(t, err)
	out = res.AsMap()
	assert.Equal(t, true, out["valid"])
	normalized := out["normalized"].(map[string]interface{})
	assert.Equal(t, []interface{}{"black-id", "Teal"}, normalized["color"])
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewSchemaHandler(newCompiler(), logger.NewNop()).Register(r)
	return r
}

func TestHTTPGetSchema(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories/smartphones/schema", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Hidden      bool `json:"hidden"`
		Descriptors []struct {
			AttributeID string `json:"attributeId"`
			Widget      string `json:"widget"`
		} `json:"descriptors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.False(t, view.Hidden)
	require.Len(t, view.Descriptors, 2)
	assert.Equal(t, "select", view.Descriptors[0].Widget)
	assert.Equal(t, "tags", view.Descriptors[1].Widget)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories/unknown/schema", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTPValidate(t *testing.T) {
	r := newRouter()

	body := `{"attributeValues":{"storage":"999","color":["black-id"]}}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories/smartphones/validate", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var res ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, apperror.CodeUnknownValue, res.Errors[0].Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories/smartphones/validate", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
