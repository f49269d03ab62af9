package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/client"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/logger"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
	"github.com/pesio-ai/be-mes-scenarios/internal/scenario"
)

var fixedNow = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// fakeTx counts transactions and hands the handler a nil gateway; the
// handlers used here never touch it.
type fakeTx struct {
	calls int
	err   error
}

func (f *fakeTx) InTransaction(_ context.Context, fn func(gw repository.Gateway) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type fakeOptions struct {
	source, filter string
	opts           []repository.Option
}

func (f *fakeOptions) Options(_ context.Context, source, filter string) ([]repository.Option, error) {
	f.source, f.filter = source, filter
	return f.opts, nil
}

type fakeEvents struct {
	events []*client.ScenarioEvent
}

func (f *fakeEvents) PublishExecuted(e *client.ScenarioEvent) {
	f.events = append(f.events, e)
}

type fixture struct {
	svc     *ExecutorService
	tx      *fakeTx
	options *fakeOptions
	events  *fakeEvents
	envs    []*scenario.Env
}

func newFixture(t *testing.T, handlers ...scenario.Handler) *fixture {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{tx: &fakeTx{}, options: &fakeOptions{}, events: &fakeEvents{}}
	f.svc = NewExecutorService(
		cat,
		scenario.NewRegistry(handlers...),
		f.tx,
		f.options,
		f.events,
		ExecutorConfig{
			TenantID: "tenant-a",
			Random:   scenario.NewRandom(1),
			Clock:    func() time.Time { return fixedNow },
		},
		logger.Nop(),
	)
	return f
}

func (f *fixture) handler(id string, out map[string]any, err error) scenario.Handler {
	return scenario.Handler{
		ID: id,
		Run: func(_ context.Context, _ repository.Gateway, env *scenario.Env, _ catalog.Params) (map[string]any, error) {
			f.envs = append(f.envs, env)
			return out, err
		},
	}
}

func TestExecuteUnknownScenario(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Execute(context.Background(), "ZZ999", map[string]any{})

	assert.False(t, res.Success)
	assert.Equal(t, "시나리오를 찾을 수 없습니다: ZZ999", res.Error)
	assert.Equal(t, errors.ErrCodeUnknownScenario, res.Code)
	assert.Nil(t, res.Result)
	assert.Zero(t, f.tx.calls)
	assert.Empty(t, f.events.events)
}

func TestExecuteUnimplementedScenario(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Execute(context.Background(), "PR003", map[string]any{"line_code": "LINE001", "shift_pattern": "2-shift"})

	assert.False(t, res.Success)
	assert.Equal(t, "실행기가 구현되지 않았습니다: PR003", res.Error)
	assert.Equal(t, errors.ErrCodeUnimplementedScenario, res.Code)
	assert.Zero(t, f.tx.calls)
}

func TestExecuteValidationHappensBeforeDatabase(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.NewRegistry(f.handler("QS001", nil, nil))

	res := f.svc.Execute(context.Background(), "QS001", map[string]any{"line_code": "LINE001", "defect_rate": 250.0})

	assert.False(t, res.Success)
	assert.Equal(t, errors.ErrCodeValidation, res.Code)
	assert.Contains(t, res.Error, "defect_rate")
	assert.Zero(t, f.tx.calls)
	assert.Empty(t, f.envs)
}

func TestExecuteSuccess(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.NewRegistry(f.handler("EQ003", map[string]any{"maintenance_id": int64(4)}, nil))

	res := f.svc.Execute(context.Background(), "EQ003", map[string]any{"equipment_code": "EQP0001"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "예방 정비", res.Scenario)
	assert.Equal(t, int64(4), res.Result["maintenance_id"])
	assert.NotEmpty(t, res.ExecutionID)
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.envs, 1)
	assert.Equal(t, "tenant-a", f.envs[0].TenantID)
	assert.Equal(t, fixedNow, f.envs[0].Now)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, "EQ003", ev.ScenarioID)
	assert.Equal(t, res.ExecutionID, ev.ExecutionID)
	assert.Equal(t, "EQP0001", ev.Parameters["equipment_code"])
}

func TestExecuteHandlerFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.NewRegistry(f.handler("BS002", nil, errors.NotFound("발주", "PO404")))

	res := f.svc.Execute(context.Background(), "BS002", map[string]any{"po_no": "PO404"})

	assert.False(t, res.Success)
	assert.Equal(t, "발주을(를) 찾을 수 없습니다: PO404", res.Error)
	assert.Equal(t, errors.ErrCodeNotFound, res.Code)
	assert.Empty(t, f.events.events)
}

func TestExecuteSurfacesDatabaseText(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.NewRegistry(f.handler("BS002", nil, nil))
	f.tx.err = errors.Wrap(stderrors.New("canceling statement due to statement timeout"),
		errors.ErrCodeDatabase, "failed to execute statement")

	res := f.svc.Execute(context.Background(), "BS002", map[string]any{"po_no": "PO1"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "canceling statement due to statement timeout")
	assert.Equal(t, errors.ErrCodeDatabase, res.Code)
}

func TestEveryListedScenarioReturnsAnEnvelope(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.DefaultRegistry()
	f.tx.err = errors.New(errors.ErrCodeDatabase, "database unavailable")

	for category, scenarios := range f.svc.ListScenarios() {
		for key, desc := range scenarios {
			res := f.svc.Execute(context.Background(), desc.ID, map[string]any{})
			if !res.Success {
				assert.NotEmpty(t, res.Error, "%s.%s", category, key)
			}
		}
	}
}

func TestParameterOptions(t *testing.T) {
	f := newFixture(t)
	f.options.opts = []repository.Option{{Value: "EQP0001", Label: "SMT Mounter"}}

	opts, err := f.svc.ParameterOptions(context.Background(), "EQ001", "equipment_code")
	require.NoError(t, err)
	assert.Equal(t, f.options.opts, opts)
	assert.Equal(t, "equipment", f.options.source)
	assert.Equal(t, "status <> 'breakdown'", f.options.filter)

	opts, err = f.svc.ParameterOptions(context.Background(), "EQ001", "severity")
	require.NoError(t, err)
	assert.Equal(t, []repository.Option{
		{Value: "minor", Label: "경미"},
		{Value: "major", Label: "중대"},
		{Value: "critical", Label: "치명"},
	}, opts)

	opts, err = f.svc.ParameterOptions(context.Background(), "QS002", "target_code")
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = f.svc.ParameterOptions(context.Background(), "EQ001", "nope")
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))

	_, err = f.svc.ParameterOptions(context.Background(), "ZZ999", "x")
	assert.Equal(t, errors.ErrCodeUnknownScenario, errors.CodeOf(err))
}

func TestOptionsNeverForwardsAFilter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Options(context.Background(), "lines")
	require.NoError(t, err)
	assert.Equal(t, "lines", f.options.source)
	assert.Empty(t, f.options.filter)
}

func TestExecuteRecoversHandlerPanic(t *testing.T) {
	f := newFixture(t, scenario.Handler{
		ID: "PR003",
		Run: func(_ context.Context, _ repository.Gateway, _ *scenario.Env, _ catalog.Params) (map[string]any, error) {
			panic("decimal: cannot create a Decimal from NaN")
		},
	})

	res := f.svc.Execute(context.Background(), "PR003", map[string]any{"line_code": "LINE001", "shift_pattern": "2-shift"})

	assert.False(t, res.Success)
	assert.Equal(t, errors.ErrCodeInternal, res.Code)
	assert.Contains(t, res.Error, "시나리오 실행 중 오류가 발생했습니다")
	assert.Nil(t, res.Result)
	assert.NotEmpty(t, res.ExecutionID)
	assert.Equal(t, 1, f.tx.calls)
	assert.Empty(t, f.events.events)
}

func TestExecuteRejectsNaNPercent(t *testing.T) {
	f := newFixture(t)
	f.svc.handlers = scenario.NewRegistry(f.handler("MT001", map[string]any{}, nil))

	res := f.svc.Execute(context.Background(), "MT001", map[string]any{"item_code": "PROD002", "shortage_percent": "NaN"})

	assert.False(t, res.Success)
	assert.Equal(t, errors.ErrCodeValidation, res.Code)
	assert.Equal(t, "shortage_percent: 숫자여야 합니다", res.Error)
	assert.Zero(t, f.tx.calls)
	assert.Empty(t, f.envs)
}
