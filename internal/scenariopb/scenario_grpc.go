// Package scenariopb defines the mes.scenarios.v1.ScenarioService gRPC
// contract. Messages are google.protobuf.Struct so the scenario catalog can
// grow without regenerating stubs.
package scenariopb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "mes.scenarios.v1.ScenarioService"

const (
	ScenarioService_ListScenarios_FullMethodName = "/mes.scenarios.v1.ScenarioService/ListScenarios"
	ScenarioService_Execute_FullMethodName       = "/mes.scenarios.v1.ScenarioService/Execute"
	ScenarioService_ListOptions_FullMethodName   = "/mes.scenarios.v1.ScenarioService/ListOptions"
)

// ScenarioServiceClient is the client API for ScenarioService.
type ScenarioServiceClient interface {
	// ListScenarios returns {category: {key: descriptor}}.
	ListScenarios(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Execute takes {scenario_id, params} and returns the result envelope.
	Execute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	// ListOptions takes {scenario_id, param} or {source} and returns {options}.
	ListOptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type scenarioServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScenarioServiceClient(cc grpc.ClientConnInterface) ScenarioServiceClient {
	return &scenarioServiceClient{cc}
}

func (c *scenarioServiceClient) ListScenarios(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScenarioService_ListScenarios_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *scenarioServiceClient) Execute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScenarioService_Execute_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *scenarioServiceClient) ListOptions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScenarioService_ListOptions_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ScenarioServiceServer is the server API for ScenarioService.
type ScenarioServiceServer interface {
	ListScenarios(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOptions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedScenarioServiceServer can be embedded for forward compatibility.
type UnimplementedScenarioServiceServer struct{}

func (UnimplementedScenarioServiceServer) ListScenarios(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListScenarios not implemented")
}

func (UnimplementedScenarioServiceServer) Execute(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Execute not implemented")
}

func (UnimplementedScenarioServiceServer) ListOptions(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListOptions not implemented")
}

func RegisterScenarioServiceServer(s grpc.ServiceRegistrar, srv ScenarioServiceServer) {
	s.RegisterService(&ScenarioService_ServiceDesc, srv)
}

func _ScenarioService_ListScenarios_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScenarioServiceServer).ListScenarios(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScenarioService_ListScenarios_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScenarioServiceServer).ListScenarios(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ScenarioService_Execute_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScenarioServiceServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScenarioService_Execute_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScenarioServiceServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ScenarioService_ListOptions_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScenarioServiceServer).ListOptions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ScenarioService_ListOptions_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScenarioServiceServer).ListOptions(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ScenarioService_ServiceDesc is the grpc.ServiceDesc for ScenarioService.
var ScenarioService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScenarioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListScenarios", Handler: _ScenarioService_ListScenarios_Handler},
		{MethodName: "Execute", Handler: _ScenarioService_Execute_Handler},
		{MethodName: "ListOptions", Handler: _ScenarioService_ListOptions_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mes/scenarios/v1/scenarios.proto",
}
