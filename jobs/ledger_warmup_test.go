package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/accounts"
	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/ledger"
)

type stubLedgerService struct {
	mu          sync.Mutex
	suppliers   []int64
	agents      []int64
	built       []string
	failOn      int64
	invalidated int
	listErr     error
}

func (s *stubLedgerService) ActiveAccounts(ctx context.Context) ([]int64, []int64, error) {
	return s.suppliers, s.agents, s.listErr
}

func (s *stubLedgerService) SupplierStatement(ctx context.Context, id int64) (accounts.Statement, error) {
	return s.statement(accounts.AccountSupplier, id)
}

func (s *stubLedgerService) AgentStatement(ctx context.Context, id int64) (accounts.Statement, error) {
	return s.statement(accounts.AccountAgent, id)
}

func (s *stubLedgerService) InvalidateSnapshots(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
	return nil
}

func (s *stubLedgerService) statement(kind accounts.AccountType, id int64) (accounts.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.failOn {
		return accounts.Statement{}, errors.New("source unavailable")
	}
	s.built = append(s.built, string(kind))
	st := accounts.Statement{AccountType: kind, AccountID: id}
	if kind == accounts.AccountSupplier {
		st.Ledger.Rejected = []*ledger.InvalidEventError{{ReferenceID: "PO-X", Reason: ledger.ReasonMissingDate}}
	}
	return st, nil
}

func warmupTask(t *testing.T, scope string) *asynq.Task {
	t.Helper()
	task, err := NewLedgerWarmupTask(scope)
	require.NoError(t, err)
	return task
}

func TestLedgerWarmupBuildsEveryAccount(t *testing.T) {
	svc := &stubLedgerService{suppliers: []int64{1, 2}, agents: []int64{7}}
	job := NewLedgerWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, ScopeAll)))
	require.Equal(t, []string{"supplier", "supplier", "agent"}, svc.built)
}

func TestLedgerWarmupHonoursScope(t *testing.T) {
	svc := &stubLedgerService{suppliers: []int64{1, 2}, agents: []int64{7}}
	job := NewLedgerWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, ScopeAgents)))
	require.Equal(t, []string{"agent"}, svc.built)
}

func TestLedgerWarmupRejectsUnknownScope(t *testing.T) {
	job := NewLedgerWarmupJob(&stubLedgerService{}, nil, nil)
	task := asynq.NewTask(TaskLedgerWarmup, []byte(`{"scope":"everything"}`))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewLedgerWarmupTaskRejectsUnknownScope(t *testing.T) {
	_, err := NewLedgerWarmupTask("everything")
	require.Error(t, err)
	require.True(t, ValidScope(ScopeSuppliers))
	require.False(t, ValidScope(""))
}

func TestLedgerWarmupRecordsRunOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := &stubLedgerService{suppliers: []int64{1}, failOn: 1}
	job := NewLedgerWarmupJob(svc, nil, jobmetrics.NewMetrics(reg))

	require.Error(t, job.Handle(context.Background(), warmupTask(t, ScopeSuppliers)))
	failures, err := testutil.GatherAndCount(reg, "printdesk_jobs_failures_total")
	require.NoError(t, err)
	require.Equal(t, 1, failures)

	svc.failOn = 0
	require.NoError(t, job.Handle(context.Background(), warmupTask(t, ScopeSuppliers)))
	// One series per status: failure then success.
	runs, err := testutil.GatherAndCount(reg, "printdesk_jobs_total")
	require.NoError(t, err)
	require.Equal(t, 2, runs)
}

func TestLedgerWarmupStopsOnStatementError(t *testing.T) {
	svc := &stubLedgerService{suppliers: []int64{1, 2, 3}, failOn: 2}
	job := NewLedgerWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), warmupTask(t, ScopeSuppliers))
	require.Error(t, err)
	require.Len(t, svc.built, 1)
}

func TestLedgerWarmupPropagatesListError(t *testing.T) {
	svc := &stubLedgerService{listErr: errors.New("db down")}
	job := NewLedgerWarmupJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.Error(t, job.Handle(context.Background(), warmupTask(t, "")))
}

func TestLedgerWarmupSkipsMalformedPayload(t *testing.T) {
	job := NewLedgerWarmupJob(&stubLedgerService{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLedgerInvalidateBumpsSnapshots(t *testing.T) {
	svc := &stubLedgerService{}
	job := NewLedgerInvalidateJob(svc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLedgerInvalidateTask("supplier import")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, svc.invalidated)
}

func TestNewLedgerWarmupTaskDefaultsScope(t *testing.T) {
	task := warmupTask(t, "")
	require.Equal(t, TaskLedgerWarmup, task.Type())
	var payload LedgerWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, ScopeAll, payload.Scope)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHandlerHealth(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, QueueDefault, body.Queue)
	require.Equal(t, 4, body.Pending)
}

func TestHandlerHealthUnavailable(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
