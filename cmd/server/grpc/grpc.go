// Package grpc exposes the item APIs over gRPC, using the protobuf well-known types as messages.
// The server has tracing, error conversion and panic recovery enabled.
package grpc

import (
	"fmt"
	"net"
	"time"

	"github.com/naughtygopher/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/prashantkr001/item-service/cmd/server/grpc/proto/v1/pbitems"
	"github.com/prashantkr001/item-service/internal/api"
	"github.com/prashantkr001/item-service/internal/pkg/apm"
)

type Config struct {
	Host            string
	Port            int
	ConnTimeout     time.Duration
	EnableAccesslog bool
	// TLSCertFile & TLSKeyFile are PEM files, the server is plaintext if neither is set
	TLSCertFile string
	TLSKeyFile  string
}

type GRPC struct {
	hostaddress string
	grpcServer  *grpc.Server
	apis        *api.API
	startedAt   time.Time
	pbitems.UnimplementedItemsServiceServer
}

// Start will start the grpc server.
func (grp *GRPC) Start() error {
	lis, err := net.Listen("tcp", grp.hostaddress)
	if err != nil {
		return errors.Wrap(err, "failed to create listener")
	}

	return grp.Serve(lis)
}

// Serve starts serving on the given listener, blocks until the server is stopped.
func (grp *GRPC) Serve(lis net.Listener) error {
	grp.startedAt = time.Now()
	err := grp.grpcServer.Serve(lis)
	if err != nil {
		return errors.Wrap(err, "failed to serve")
	}

	return nil
}

func (grp *GRPC) StartedAt() time.Time {
	return grp.startedAt
}

func (grp *GRPC) Address() string {
	return grp.hostaddress
}

// Implementor is used if the underlying grpc server is required for any specific usecase.
func (grp *GRPC) Implementor() *grpc.Server {
	return grp.grpcServer
}

// Shutdown will shutdown the grpc server
func (grp *GRPC) Shutdown() {
	grp.grpcServer.GracefulStop()
}

// transportCredentials is plaintext unless a certificate is configured. Plaintext is meant for
// development, and for deployments where TLS is terminated in front of the service (ingress or
// service mesh).
func transportCredentials(cfg *Config) (credentials.TransportCredentials, error) { //nolint:ireturn // grpc credentials are only exposed as an interface
	if cfg.TLSCertFile == "" && cfg.TLSKeyFile == "" {
		return insecure.NewCredentials(), nil
	}

	creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed loading grpc TLS certificate")
	}

	return creds, nil
}

// New makes new grpc server.
func New(apis *api.API, cfg *Config) (*GRPC, error) {
	creds, err := transportCredentials(cfg)
	if err != nil {
		return nil, err
	}

	const graceShutdownTime = time.Second * 5
	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: time.Minute,
			// MaxConnectionAgeGrace is the graceful period for outstanding connections
			MaxConnectionAgeGrace: graceShutdownTime,

			Time:             0,
			Timeout:          0,
			MaxConnectionAge: 0,
		}),
		grpc.Creds(creds),
		grpc.ConnectionTimeout(cfg.ConnTimeout),
		grpc.StatsHandler(apm.OtelGRPCNewServerHandler()),
	}

	// the access log is the outermost, so it logs the status code which is finally responded
	interceptors := make([]grpc.UnaryServerInterceptor, 0, 3)
	if cfg.EnableAccesslog {
		interceptors = append(interceptors, MwAccessLog)
	}
	interceptors = append(interceptors, MwErrWrapper, MwRecoverer)
	opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))

	grpcServer := grpc.NewServer(opts...)

	grp := &GRPC{
		hostaddress: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		grpcServer:  grpcServer,
		apis:        apis,
	}
	pbitems.RegisterItemsServiceServer(grp.grpcServer, grp)

	// lists the registered services. The items service has no file descriptor, so it can not be described
	// e.g. grpcurl -plaintext localhost:5002 list
	reflection.Register(grpcServer)

	return grp, nil
}

func responseError(err error) error {
	code, message, _ := errors.GRPCStatusCodeMessage(err)
	return status.Error(code, message) //nolint:wrapcheck // raw unwrapped error is expected
}
