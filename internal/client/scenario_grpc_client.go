package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-mes-scenarios/internal/scenariopb"
)

// ScenarioGRPCClient is a gRPC client for the scenario executor
type ScenarioGRPCClient struct {
	conn   *grpc.ClientConn
	client scenariopb.ScenarioServiceClient
}

// NewScenarioGRPCClient creates a new scenario service gRPC client
func NewScenarioGRPCClient(addr string, opts ...grpc.DialOption) (*ScenarioGRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(forwardMetadata, stampRequestID),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	return &ScenarioGRPCClient{
		conn:   conn,
		client: scenariopb.NewScenarioServiceClient(conn),
	}, nil
}

// Close closes the gRPC connection
func (c *ScenarioGRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ListScenarios returns category -> scenario key -> descriptor
func (c *ScenarioGRPCClient) ListScenarios(ctx context.Context) (map[string]any, error) {
	resp, err := c.client.ListScenarios(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return resp.AsMap(), nil
}

// Execute runs a scenario and returns the result envelope. A failed scenario
// is not an error here; inspect the envelope's success field.
func (c *ScenarioGRPCClient) Execute(ctx context.Context, scenarioID string, params map[string]any) (map[string]any, error) {
	if params == nil {
		params = map[string]any{}
	}
	req, err := structpb.NewStruct(map[string]any{
		"scenario_id": scenarioID,
		"params":      params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	resp, err := c.client.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute scenario: %w", err)
	}
	return resp.AsMap(), nil
}

// ListOptions lists selectable values for a scenario parameter, or for a
// source when scenarioID is empty.
func (c *ScenarioGRPCClient) ListOptions(ctx context.Context, scenarioID, param, source string) ([]map[string]any, error) {
	fields := map[string]any{}
	if scenarioID != "" {
		fields["scenario_id"] = scenarioID
		fields["param"] = param
	} else {
		fields["source"] = source
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.client.ListOptions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list options: %w", err)
	}

	raw, _ := resp.AsMap()["options"].([]any)
	opts := make([]map[string]any, 0, len(raw))
	for _, o := range raw {
		if m, ok := o.(map[string]any); ok {
			opts = append(opts, m)
		}
	}
	return opts, nil
}
