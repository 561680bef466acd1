package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"shelfhub/internal/metrics"
)

// NewServer returns a gRPC server with request logging, metrics and the
// standard health service installed. Entity services are added with
// RegisterLibraryService, RegisterBookService and RegisterUserService.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		// Must admit the keepalive pings sent by Dial.
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(logUnary),
	}, opts...)
	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, health.NewServer())
	return srv
}

// Serve listens on addr and serves srv until ctx is done, then stops
// gracefully.
func Serve(ctx context.Context, srv *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return ServeListener(ctx, srv, lis)
}

// ServeListener is Serve for an existing listener.
func ServeListener(ctx context.Context, srv *grpc.Server, lis net.Listener) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		srv.GracefulStop()
	}()
	slog.Info("rpc server listening", "addr", lis.Addr().String())
	err := srv.Serve(lis)
	if ctx.Err() != nil {
		<-stopped
	}
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	elapsed := time.Since(start)

	entityName, op := splitMethod(info.FullMethod)
	if entityName != "grpc" {
		metrics.Observe("rpc", entityName, op, resultForCode(code), elapsed)
	}
	slog.Info(
		"rpc_request",
		"method", info.FullMethod,
		"code", code.String(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp, err
}

// splitMethod turns "/library.LibraryService/GetLibrary" into ("library", "GetLibrary").
func splitMethod(fullMethod string) (string, string) {
	service, method, ok := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !ok {
		return "unknown", fullMethod
	}
	pkg, _, _ := strings.Cut(service, ".")
	return pkg, method
}

func resultForCode(code codes.Code) string {
	switch code {
	case codes.OK:
		return metrics.ResultOK
	case codes.NotFound:
		return metrics.ResultNotFound
	case codes.InvalidArgument:
		return metrics.ResultInvalid
	default:
		return metrics.ResultBackend
	}
}

// unaryHandler adapts a typed service method into a grpc.MethodHandler.
func unaryHandler[S, Req, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
