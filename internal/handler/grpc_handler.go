package handler

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
	"github.com/pesio-ai/be-mes-scenarios/internal/scenariopb"
	"github.com/pesio-ai/be-mes-scenarios/internal/service"
)

// GRPCHandler implements the ScenarioService gRPC interface
type GRPCHandler struct {
	scenariopb.UnimplementedScenarioServiceServer
	service *service.ExecutorService
	logger  zerolog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(svc *service.ExecutorService, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: svc,
		logger:  logger.With().Str("handler", "grpc").Logger(),
	}
}

// ListScenarios returns the scenario catalog
func (h *GRPCHandler) ListScenarios(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := toStruct(h.service.ListScenarios())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Execute runs a scenario. Scenario failures are reported inside the
// envelope with an OK status; only malformed requests fail the call.
func (h *GRPCHandler) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	scenarioID, _ := fields["scenario_id"].(string)
	if scenarioID == "" {
		return nil, status.Error(codes.InvalidArgument, "scenario_id is required")
	}
	params, _ := fields["params"].(map[string]any)

	h.logger.Info().
		Str("scenario_id", scenarioID).
		Msg("gRPC Execute called")

	res := h.service.Execute(ctx, scenarioID, params)

	out, err := toStruct(res)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListOptions returns selectable values for a scenario parameter or a source
func (h *GRPCHandler) ListOptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()
	scenarioID, _ := fields["scenario_id"].(string)
	param, _ := fields["param"].(string)
	source, _ := fields["source"].(string)

	var (
		opts []repository.Option
		err  error
	)
	switch {
	case scenarioID != "" && param != "":
		opts, err = h.service.ParameterOptions(ctx, scenarioID, param)
	case source != "":
		opts, err = h.service.Options(ctx, source)
	default:
		return nil, status.Error(codes.InvalidArgument, "source or scenario_id and param are required")
	}
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}

	out, err := toStruct(map[string]any{"options": opts})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStruct converts v to a Struct through its JSON form, so json tags decide
// field names and typed slices become lists.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func mapErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch errors.CodeOf(err) {
	case errors.ErrCodeUnknownScenario, errors.ErrCodeNotFound:
		return status.Error(codes.NotFound, msg)
	case errors.ErrCodeValidation:
		return status.Error(codes.InvalidArgument, msg)
	case errors.ErrCodeUnimplementedScenario:
		return status.Error(codes.Unimplemented, msg)
	case errors.ErrCodeConflict, errors.ErrCodeIntegrity:
		return status.Error(codes.FailedPrecondition, msg)
	case errors.ErrCodeDatabase:
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}

// LoggingInterceptor logs one line per unary call with its request id.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.
			Str("method", info.FullMethod).
			Str("request_id", requestIDFromMetadata(ctx)).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("gRPC request")
		return resp, err
	}
}

// RecoveryInterceptor turns a panic in a unary handler into codes.Internal.
func RecoveryInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("method", info.FullMethod).
					Msg("Recovered from panic")
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if ids := md.Get("x-request-id"); len(ids) > 0 {
		return ids[0]
	}
	return ""
}
