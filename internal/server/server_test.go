package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/clock"
	"github.com/vanigatech/vaniga/internal/config"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBusinessService struct {
	recomputeCalls int
}

func (f *fakeBusinessService) Create(ctx context.Context, req businessdomain.CreateBusinessRequest) (businessdomain.Business, error) {
	if req.Name == "" {
		return businessdomain.Business{}, businessdomain.ErrInvalidName
	}
	return businessdomain.Business{ID: snowflake.ID(100), Name: req.Name, Score: 300}, nil
}

func (f *fakeBusinessService) Get(ctx context.Context) (businessdomain.Business, error) {
	return businessdomain.Business{ID: snowflake.ID(100), Name: "Test Traders", Score: 560}, nil
}

func (f *fakeBusinessService) RecomputeScore(ctx context.Context, asOf time.Time) (businessdomain.ScoreResult, error) {
	f.recomputeCalls++
	return businessdomain.ScoreResult{
		Score:     700,
		Breakdown: businessdomain.ScoreBreakdown{Base: 300, Volume: 250, Consistency: 100, Health: 50},
	}, nil
}

type fakeCustomerService struct{}

func (f *fakeCustomerService) Refresh(ctx context.Context, req customerdomain.RefreshRequest) (customerdomain.Customer, error) {
	return customerdomain.Customer{Name: req.Name}, nil
}

func (f *fakeCustomerService) GetByName(ctx context.Context, req customerdomain.GetCustomerRequest) (customerdomain.Customer, error) {
	if req.Name == "Nobody" {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return customerdomain.Customer{Name: req.Name, TotalCreditGiven: 1000}, nil
}

func (f *fakeCustomerService) List(ctx context.Context, req customerdomain.ListCustomersRequest) (customerdomain.ListCustomersResponse, error) {
	return customerdomain.ListCustomersResponse{}, nil
}

type fakeLedgerService struct {
	createCalls int
	lastCreate  ledgerdomain.CreateTransactionRequest
}

func (f *fakeLedgerService) Create(ctx context.Context, req ledgerdomain.CreateTransactionRequest) (ledgerdomain.MutationResult, error) {
	f.createCalls++
	f.lastCreate = req
	if req.Kind == "" {
		return ledgerdomain.MutationResult{}, ledgerdomain.ErrInvalidKind
	}
	if req.Amount == nil {
		return ledgerdomain.MutationResult{}, ledgerdomain.ErrInvalidAmount
	}
	return ledgerdomain.MutationResult{UpdatedScore: 560}, nil
}

func (f *fakeLedgerService) Update(ctx context.Context, req ledgerdomain.UpdateTransactionRequest) (ledgerdomain.MutationResult, error) {
	return ledgerdomain.MutationResult{}, ledgerdomain.ErrNotFound
}

func (f *fakeLedgerService) Delete(ctx context.Context, req ledgerdomain.DeleteTransactionRequest) (ledgerdomain.MutationResult, error) {
	return ledgerdomain.MutationResult{UpdatedScore: 300}, nil
}

func (f *fakeLedgerService) Get(ctx context.Context, req ledgerdomain.GetTransactionRequest) (ledgerdomain.Transaction, error) {
	return ledgerdomain.Transaction{}, ledgerdomain.ErrForbidden
}

func (f *fakeLedgerService) List(ctx context.Context, req ledgerdomain.ListTransactionsRequest) (ledgerdomain.ListTransactionsResponse, error) {
	return ledgerdomain.ListTransactionsResponse{}, nil
}

func (f *fakeLedgerService) Dashboard(ctx context.Context, req ledgerdomain.DashboardRequest) (ledgerdomain.DashboardResponse, error) {
	return ledgerdomain.DashboardResponse{
		Stats: ledgerdomain.DashboardStats{TransactionCount: 3},
	}, nil
}

func (f *fakeLedgerService) Resync(ctx context.Context) (businessdomain.ScoreResult, error) {
	return businessdomain.ScoreResult{Score: 410}, nil
}

type serverFixture struct {
	server   *Server
	business *fakeBusinessService
	ledger   *fakeLedgerService
}

func newServerFixture(t *testing.T, cfg config.Config) *serverFixture {
	t.Helper()

	business := &fakeBusinessService{}
	ledger := &fakeLedgerService{}

	srv := NewServer(ServerParams{
		Gin:            NewEngine(zap.NewNop()),
		Cfg:            cfg,
		Log:            zap.NewNop(),
		Clock:          clock.NewFakeClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)),
		BusinessSvc:    business,
		CustomerSvc:    &fakeCustomerService{},
		TransactionSvc: ledger,
	})
	srv.RegisterRoutes()

	return &serverFixture{server: srv, business: business, ledger: ledger}
}

func (f *serverFixture) do(method, path, businessID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if businessID != "" {
		req.Header.Set(HeaderBusiness, businessID)
	}
	w := httptest.NewRecorder()
	f.server.engine.ServeHTTP(w, req)
	return w
}

func TestBusinessHeaderRequired(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	w := f.do(http.MethodGet, "/api/score", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/score", "not-a-snowflake", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTransactionEndpoint(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	w := f.do(http.MethodPost, "/api/transactions", "100", map[string]any{
		"kind":          "credit_given",
		"amount":        50000,
		"customer_name": "Asha",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, f.ledger.createCalls)
	assert.Equal(t, "credit_given", f.ledger.lastCreate.Kind)
	require.NotNil(t, f.ledger.lastCreate.Amount)
	assert.Equal(t, 50000.0, *f.ledger.lastCreate.Amount)

	var resp struct {
		Data ledgerdomain.MutationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 560, resp.Data.UpdatedScore)
}

func TestValidationErrorMapsTo400(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	w := f.do(http.MethodPost, "/api/transactions", "100", map[string]any{
		"amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Type   string            `json:"type"`
			Errors []ValidationError `json:"errors"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "invalid_kind", resp.Error.Errors[0].Code)
	assert.Equal(t, "kind", resp.Error.Errors[0].Field)
}

func TestErrorStatusMapping(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	// Forbidden from the ownership check.
	w := f.do(http.MethodGet, "/api/transactions/123", "100", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Not found from the update path.
	w = f.do(http.MethodPut, "/api/transactions/123", "100", map[string]any{"amount": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/customers/Nobody", "100", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMutationRateLimit(t *testing.T) {
	f := newServerFixture(t, config.Config{RateLimitPerMinute: 1, RateLimitBurst: 2})

	body := map[string]any{"kind": "expense", "amount": 10}
	for i := 0; i < 2; i++ {
		w := f.do(http.MethodPost, "/api/transactions", "100", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(http.MethodPost, "/api/transactions", "100", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not throttled.
	w = f.do(http.MethodGet, "/api/transactions", "100", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetScoreEndpoint(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	w := f.do(http.MethodGet, "/api/score", "100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.business.recomputeCalls)

	var resp struct {
		Data struct {
			Score        int  `json:"score"`
			LoanEligible bool `json:"loan_eligible"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 700, resp.Data.Score)
	assert.True(t, resp.Data.LoanEligible)
}

func TestRequestIDPropagation(t *testing.T) {
	f := newServerFixture(t, config.Config{})

	w := f.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	rec := httptest.NewRecorder()
	f.server.engine.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(HeaderRequestID))
}
