package client

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader is the metadata key the scenario service logs per call.
const RequestIDHeader = "x-request-id"

// forwardMetadata is a gRPC unary client interceptor that propagates
// incoming request metadata to outgoing calls, so a request id set by an
// upstream caller follows the scenario execution.
func forwardMetadata(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		ctx = metadata.NewOutgoingContext(ctx, md)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// stampRequestID adds an x-request-id to calls that do not carry one yet.
func stampRequestID(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(RequestIDHeader)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}
