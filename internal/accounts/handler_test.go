package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubStatementService struct {
	supplierFn func(ctx context.Context, id int64) (Statement, error)
	agentFn    func(ctx context.Context, id int64) (Statement, error)
	bumped     int
}

func (s *stubStatementService) SupplierStatement(ctx context.Context, id int64) (Statement, error) {
	return s.supplierFn(ctx, id)
}

func (s *stubStatementService) AgentStatement(ctx context.Context, id int64) (Statement, error) {
	return s.agentFn(ctx, id)
}

func (s *stubStatementService) InvalidateSnapshots(ctx context.Context) error {
	s.bumped++
	return nil
}

func newTestRouter(t *testing.T, svc StatementService) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func realService(t *testing.T) *Service {
	t.Helper()
	repo := newMemoryRepo()
	seedSupplier(repo)
	svc := NewService(repo, nil, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) })
	return svc
}

func TestSupplierLedgerJSON(t *testing.T) {
	router := newTestRouter(t, realService(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/suppliers/7/ledger", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "2", rr.Header().Get("X-Rejected-Events"))

	var body struct {
		AccountType string `json:"account_type"`
		Ledger      struct {
			Entries []struct {
				ReferenceID    string `json:"reference_id"`
				RunningBalance string `json:"running_balance"`
			} `json:"entries"`
			Summary struct {
				NetBalance string `json:"net_balance"`
			} `json:"summary"`
		} `json:"ledger"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "supplier", body.AccountType)
	require.Equal(t, "500", body.Ledger.Summary.NetBalance)
	require.Len(t, body.Ledger.Entries, 3)
	require.Equal(t, "500", body.Ledger.Entries[0].RunningBalance)
	require.Equal(t, "1000", body.Ledger.Entries[2].RunningBalance)
}

func TestSupplierLedgerCSV(t *testing.T) {
	router := newTestRouter(t, realService(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/suppliers/7/ledger.csv", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "supplier-7-ledger.csv")
	body := rr.Body.String()
	require.True(t, strings.HasPrefix(body, "# supplier 7 generated 2024-02-01T00:00:00Z\r\n"))
	require.Contains(t, body, "2024-01-15,ADJUSTMENT_CREDIT,CN-001,CREDIT note: Damaged roll,-100.00,500.00\r\n")
	require.Contains(t, body, ",TOTAL,net_balance,500.00\r\n")
	require.Contains(t, body, ",TOTAL,rejected_events,2\r\n")
}

func TestLedgerRejectsBadID(t *testing.T) {
	router := newTestRouter(t, realService(t))

	for _, path := range []string{"/suppliers/abc/ledger", "/agents/0/ledger"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}

func TestLedgerHidesInternalErrors(t *testing.T) {
	svc := &stubStatementService{
		agentFn: func(ctx context.Context, id int64) (Statement, error) {
			return Statement{}, errors.New("pq: relation agent_payouts does not exist")
		},
	}
	router := newTestRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/agents/4/ledger", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "agent_payouts")
}

func TestBumpCache(t *testing.T) {
	svc := &stubStatementService{}
	router := newTestRouter(t, svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/accounts/cache/bump", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, 1, svc.bumped)
}
