package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/client"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/logger"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
	"github.com/pesio-ai/be-mes-scenarios/internal/scenario"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(gw repository.Gateway) error) error
}

// OptionsLister lists selectable values for a whitelisted source.
type OptionsLister interface {
	Options(ctx context.Context, source, filter string) ([]repository.Option, error)
}

// EventPublisher receives an event for every committed execution.
type EventPublisher interface {
	PublishExecuted(event *client.ScenarioEvent)
}

// ExecutorConfig carries the per-process context handlers run with.
type ExecutorConfig struct {
	TenantID string
	Random   scenario.Random
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Result is the envelope every execution returns.
type Result struct {
	Success     bool             `json:"success"`
	Scenario    string           `json:"scenario,omitempty"`
	Result      map[string]any   `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	ExecutionID string           `json:"execution_id,omitempty"`
	Code        errors.ErrorCode `json:"-"`
}

// ExecutorService resolves a scenario id to its handler, validates the
// parameters against the catalog and runs the handler in one transaction.
type ExecutorService struct {
	catalog  *catalog.Registry
	handlers *scenario.Registry
	tx       Transactor
	options  OptionsLister
	events   EventPublisher
	tenantID string
	random   scenario.Random
	clock    func() time.Time
	log      *logger.Logger
}

// NewExecutorService creates a new executor service. events may be nil.
func NewExecutorService(
	cat *catalog.Registry,
	handlers *scenario.Registry,
	tx Transactor,
	options OptionsLister,
	events EventPublisher,
	cfg ExecutorConfig,
	log *logger.Logger,
) *ExecutorService {
	if cfg.Random == nil {
		cfg.Random = scenario.NewRandom(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &ExecutorService{
		catalog:  cat,
		handlers: handlers,
		tx:       tx,
		options:  options,
		events:   events,
		tenantID: cfg.TenantID,
		random:   cfg.Random,
		clock:    cfg.Clock,
		log:      log,
	}
}

// ListScenarios returns category -> scenario key -> public descriptor.
func (s *ExecutorService) ListScenarios() map[string]map[string]catalog.Descriptor {
	return s.catalog.List()
}

// Execute runs one scenario. Failures never escape as errors; they are
// rendered into the envelope.
func (s *ExecutorService) Execute(ctx context.Context, scenarioID string, params map[string]any) *Result {
	executionID := uuid.NewString()
	log := s.log.With().
		Str("execution_id", executionID).
		Str("scenario_id", scenarioID).
		Str("tenant_id", s.tenantID).
		Logger()

	sc, err := s.catalog.Find(scenarioID)
	if err != nil {
		log.Warn().Msg("Unknown scenario requested")
		return failure(executionID, err)
	}

	h, ok := s.handlers.Lookup(scenarioID)
	if !ok {
		log.Warn().Msg("Scenario has no handler")
		return failure(executionID, errors.New(errors.ErrCodeUnimplementedScenario,
			fmt.Sprintf("실행기가 구현되지 않았습니다: %s", scenarioID)))
	}

	now := s.clock()
	validated, err := sc.Validate(params, now)
	if err != nil {
		log.Warn().Err(err).Msg("Scenario parameters rejected")
		return failure(executionID, err)
	}

	env := &scenario.Env{
		TenantID: s.tenantID,
		Now:      now,
		Rand:     s.random,
		Log:      log,
	}

	var out map[string]any
	start := time.Now()
	err = s.tx.InTransaction(ctx, func(gw repository.Gateway) (runErr error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("Scenario handler panicked")
				out = nil
				runErr = errors.New(errors.ErrCodeInternal, fmt.Sprintf("시나리오 실행 중 오류가 발생했습니다: %v", rec))
			}
		}()
		out, runErr = h.Run(ctx, gw, env, validated)
		return runErr
	})
	duration := time.Since(start)

	if err != nil {
		log.Warn().
			Err(err).
			Str("code", string(errors.CodeOf(err))).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Scenario execution failed")
		return failure(executionID, err)
	}

	log.Info().
		Str("scenario", sc.Name).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("Scenario executed")

	if s.events != nil {
		s.events.PublishExecuted(&client.ScenarioEvent{
			ExecutionID: executionID,
			ScenarioID:  scenarioID,
			Scenario:    sc.Name,
			TenantID:    s.tenantID,
			Parameters:  validated,
			Result:      out,
			DurationMS:  duration.Milliseconds(),
			OccurredAt:  now,
		})
	}

	return &Result{
		Success:     true,
		Scenario:    sc.Name,
		Result:      out,
		ExecutionID: executionID,
	}
}

// Options lists values for a whitelisted source without a filter. Unknown
// sources yield an empty list.
func (s *ExecutorService) Options(ctx context.Context, source string) ([]repository.Option, error) {
	return s.options.Options(ctx, source, "")
}

// ParameterOptions lists the selectable values of one scenario parameter.
// Enumerations answer from the catalog; code parameters query their source
// with the catalog's filter.
func (s *ExecutorService) ParameterOptions(ctx context.Context, scenarioID, key string) ([]repository.Option, error) {
	sc, err := s.catalog.Find(scenarioID)
	if err != nil {
		return nil, err
	}
	param, ok := sc.Parameter(key)
	if !ok {
		return nil, errors.InvalidInput(key, "알 수 없는 파라미터입니다")
	}

	if param.Type == catalog.TypeEnum {
		opts := make([]repository.Option, 0, len(param.Options))
		for _, o := range param.Options {
			opts = append(opts, repository.Option{Value: o.Value, Label: o.Label})
		}
		return opts, nil
	}
	if param.Source == "" {
		return []repository.Option{}, nil
	}
	return s.options.Options(ctx, param.Source, param.Filter)
}

func failure(executionID string, err error) *Result {
	return &Result{
		Success:     false,
		Error:       err.Error(),
		ExecutionID: executionID,
		Code:        errors.CodeOf(err),
	}
}
