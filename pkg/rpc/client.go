package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// DefaultTimeout bounds each client call when no timeout is configured.
const DefaultTimeout = 3 * time.Second

// Dial creates a client connection to an entity service. It disables
// transport security and selects the JSON codec. The connection is
// established lazily on the first call.
func Dial(address string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	return grpc.NewClient(address, append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			// 10s is the minimum keepalive allowed by the client library.
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)...)
}

// caller issues unary calls with a per-call deadline.
type caller struct {
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

func newCaller(cc grpc.ClientConnInterface, timeout time.Duration) caller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return caller{cc: cc, timeout: timeout}
}

func (c caller) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(codecName))
}
