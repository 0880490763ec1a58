package grpc

import (
	"context"

	"github.com/naughtygopher/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/prashantkr001/item-service/cmd/server/grpc/proto/v1/pbitems"
	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

func (grp *GRPC) CreateItem(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	logger.InfoCtx(ctx, "received request to create item", zap.String("name", req.GetValue()))
	id, err := grp.apis.ItemCreate(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return wrapperspb.String(id), nil
}

func (grp *GRPC) GetItem(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	logger.InfoCtx(ctx, "looking up item", zap.String("id", req.GetValue()))
	found, err := grp.apis.ItemGet(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	out, err := structpb.NewStruct(map[string]any{
		pbitems.FieldID:   found.ID,
		pbitems.FieldName: found.Name,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build response")
	}

	return out, nil
}

func (grp *GRPC) UpdateItem(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	id := fields[pbitems.FieldID].GetStringValue()
	name := fields[pbitems.FieldName].GetStringValue()
	logger.InfoCtx(ctx, "received request to update item", zap.String("id", id), zap.String("name", name))

	err := grp.apis.ItemUpdate(ctx, id, name)
	if err != nil {
		return nil, err
	}

	return &emptypb.Empty{}, nil
}

func (grp *GRPC) DeleteItem(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	logger.InfoCtx(ctx, "deleting item", zap.String("id", req.GetValue()))
	err := grp.apis.ItemDelete(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return &emptypb.Empty{}, nil
}
