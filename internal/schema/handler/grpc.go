package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
)

var _ rpc.SchemaServiceServer = (*SchemaGRPCHandler)(nil)

type SchemaGRPCHandler struct {
	compiler *schema.Compiler
	logger   logger.ZapLogger
}

func NewSchemaGRPCHandler(compiler *schema.Compiler, log logger.ZapLogger) *SchemaGRPCHandler {
	return &SchemaGRPCHandler{
		compiler: compiler,
		logger:   log,
	}
}

func (h *SchemaGRPCHandler) CompileSchema(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	categoryID := req.GetFields()["categoryId"].GetStringValue()
	if categoryID == "" {
		return nil, status.Error(codes.InvalidArgument, "categoryId is required")
	}

	s, err := h.compiler.CompileCategory(ctx, categoryID)
	if err != nil {
		return nil, h.statusError("failed to compile schema", err)
	}
	return toStruct(s.View())
}

func (h *SchemaGRPCHandler) ValidateAttributes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	categoryID := req.GetFields()["categoryId"].GetStringValue()
	if categoryID == "" {
		return nil, status.Error(codes.InvalidArgument, "categoryId is required")
	}
	values := req.GetFields()["values"].GetStructValue().AsMap()

	s, err := h.compiler.CompileCategory(ctx, categoryID)
	if err != nil {
		return nil, h.statusError("failed to compile schema", err)
	}
	return toStruct(validate(s, values))
}

func (h *SchemaGRPCHandler) statusError(msg string, err error) error {
	code := apperror.GRPCCode(err)
	if code == codes.Internal {
		h.logger.Error(msg, zap.Error(err))
		return status.Error(code, msg)
	}
	return status.Error(code, err.Error())
}

// ValidateResponse is the body of both the HTTP and gRPC validate calls.
type ValidateResponse struct {
	schema.ValidationResult
	Normalized map[string]interface{} `json:"normalized,omitempty"`
}

func validate(s *schema.CompiledSchema, values map[string]interface{}) ValidateResponse {
	res := s.Validate(values)
	out := ValidateResponse{ValidationResult: res}
	if res.Valid {
		if normalized, err := s.Normalize(values); err == nil {
			out.Normalized = normalized
		}
	}
	return out
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
