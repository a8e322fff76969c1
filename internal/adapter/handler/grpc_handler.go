package handler

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/asset-vault/internal/core/domain"
	"github.com/rl1809/asset-vault/internal/core/service"
)

// AssetServiceServer is the assets.v1.AssetService API. Requests and
// responses are free-form structs:
//
//	GetForest      {owner_id}             -> {owner_id, count, assets}
//	RequestRefresh {owner_id, request_id} -> {request_id, owner_id, status}
type AssetServiceServer interface {
	GetForest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestRefresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var AssetServiceDesc = grpc.ServiceDesc{
	ServiceName: "assets.v1.AssetService",
	HandlerType: (*AssetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetForest", Handler: getForestHandler},
		{MethodName: "RequestRefresh", Handler: requestRefreshHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "assets/v1/assets.proto",
}

func RegisterAssetServiceServer(s grpc.ServiceRegistrar, srv AssetServiceServer) {
	s.RegisterService(&AssetServiceDesc, srv)
}

func getForestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssetServiceServer).GetForest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/assets.v1.AssetService/GetForest"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssetServiceServer).GetForest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func requestRefreshHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssetServiceServer).RequestRefresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/assets.v1.AssetService/RequestRefresh"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssetServiceServer).RequestRefresh(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type GRPCHandler struct {
	assetService *service.AssetService
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewGRPCHandler(assetService *service.AssetService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{
		assetService: assetService,
		validate:     validator.New(),
		logger:       logger,
	}
}

func (h *GRPCHandler) GetForest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDField(req)
	if err != nil {
		return nil, err
	}
	forest, err := h.assetService.Forest(ctx, ownerID)
	if err != nil {
		return nil, h.statusError(err)
	}
	return structpb.NewStruct(map[string]any{
		"owner_id": ownerID,
		"count":    forest.Len(),
		"assets":   assetList(forest),
	})
}

func (h *GRPCHandler) RequestRefresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDField(req)
	if err != nil {
		return nil, err
	}
	refresh := RefreshHTTPRequest{RequestID: req.GetFields()["request_id"].GetStringValue()}
	if err := h.validate.Struct(refresh); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request_id")
	}
	requestID := refresh.RequestID

	queued, err := h.assetService.RequestRefresh(ctx, requestID, ownerID)
	if err != nil {
		return nil, h.statusError(err)
	}
	return structpb.NewStruct(map[string]any{
		"request_id": queued.ID,
		"owner_id":   queued.OwnerID,
		"status":     string(queued.Status),
	})
}

func (h *GRPCHandler) statusError(err error) error {
	switch {
	case errors.Is(err, service.ErrOwnerNotFound):
		return status.Error(codes.NotFound, "owner not found")
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, "duplicate request")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	h.logger.Error("request failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// ownerIDField accepts the id as a number or, for ids past float precision,
// as a decimal string.
func ownerIDField(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["owner_id"]
	if !ok {
		return 0, status.Error(codes.InvalidArgument, "owner_id is required")
	}
	var ownerID int64
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, status.Error(codes.InvalidArgument, "owner_id must be an integer")
		}
		ownerID = int64(n)
	case *structpb.Value_StringValue:
		id, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, status.Error(codes.InvalidArgument, "owner_id must be an integer")
		}
		ownerID = id
	default:
		return 0, status.Error(codes.InvalidArgument, "owner_id must be an integer")
	}
	if ownerID <= 0 {
		return 0, status.Error(codes.InvalidArgument, "owner_id must be positive")
	}
	return ownerID, nil
}

func assetList(assets []*domain.Asset) []any {
	out := make([]any, 0, len(assets))
	for _, a := range assets {
		ancestors := make([]any, 0, len(a.Ancestors))
		for _, ancestor := range a.Ancestors {
			ancestors = append(ancestors, ancestor.Record.ItemID)
		}
		node := map[string]any{
			"item_id":      a.Record.ItemID,
			"type_id":      a.Record.TypeID,
			"name":         a.Item.Name,
			"quantity":     a.Record.Quantity,
			"flag":         domain.FlagName(a.Record.FlagID),
			"location_id":  a.LocationID,
			"source":       string(a.Source),
			"ancestor_ids": ancestors,
		}
		if len(a.Children) > 0 {
			node["children"] = assetList(a.Children)
		}
		out = append(out, node)
	}
	return out
}
