package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/prashantkr001/item-service/internal/item"
)

func TestMiddlewares(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/pbitems.v1.ItemsService/GetItem"}
	panicker := func(context.Context, any) (any, error) {
		panic("store exploded")
	}
	notFound := func(context.Context, any) (any, error) {
		return nil, item.ErrNotFound
	}
	ok := func(context.Context, any) (any, error) {
		return "done", nil
	}

	resp, err := MwRecoverer(t.Context(), nil, info, panicker)
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err = MwErrWrapper(t.Context(), nil, info, notFound)
	assert.Nil(t, resp)
	assert.Equal(t, codes.NotFound, status.Code(err))

	resp, err = MwAccessLog(t.Context(), nil, info, ok)
	assert.NoError(t, err)
	assert.Equal(t, "done", resp)
}
