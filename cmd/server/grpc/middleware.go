package grpc

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/naughtygopher/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

// MwRecoverer converts a panic in a handler into an Internal error, instead of crashing the app
func MwRecoverer( //nolint:nonamedreturns // named returns are required to override the response after recover
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		logger.ErrorCtx(
			ctx,
			fmt.Sprintf("[grpc] panic recovered: %v", rec),
			zap.String("method", info.FullMethod),
			zap.ByteString("stack", debug.Stack()),
		)
		resp, err = nil, responseError(errors.Internal("internal server error"))
	}()

	return handler(ctx, req)
}

func MwAccessLog(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code, httpStatus := codes.OK, http.StatusOK
	if err != nil {
		code, _ = errors.GRPCStatusCode(err)
		httpStatus, _, _ = errors.HTTPStatusCodeMessage(err)
	}

	logger.InfoCtx(
		ctx,
		fmt.Sprintf(
			"%s %s %s",
			logger.ColorByStatus(httpStatus, fmt.Sprintf("[grpc]::%s", code)),
			logger.Cyan(info.FullMethod),
			time.Since(start),
		),
	)

	return resp, err
}

// MwErrWrapper converts the app errors into gRPC status errors, 4xx-like errors are only warnings
func MwErrWrapper(
	ctx context.Context,
	req any,
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}

	return nil, responseErrWithLogs(ctx, err)
}

func responseErrWithLogs(ctx context.Context, err error) error {
	code, _ := errors.GRPCStatusCode(err)
	switch code {
	case codes.InvalidArgument,
		codes.AlreadyExists,
		codes.NotFound:
		logger.WarnCtx(ctx, err.Error())
	default:
		logger.ErrWithStacktraceCtx(ctx, err)
	}

	return responseError(err)
}
