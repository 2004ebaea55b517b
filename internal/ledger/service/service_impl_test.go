package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanigatech/vaniga/internal/bizcontext"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	businessrepo "github.com/vanigatech/vaniga/internal/business/repository"
	businessservice "github.com/vanigatech/vaniga/internal/business/service"
	"github.com/vanigatech/vaniga/internal/clock"
	"github.com/vanigatech/vaniga/internal/config"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	customerrepo "github.com/vanigatech/vaniga/internal/customer/repository"
	customerservice "github.com/vanigatech/vaniga/internal/customer/service"
	"github.com/vanigatech/vaniga/internal/ledger/domain"
	ledgerrepo "github.com/vanigatech/vaniga/internal/ledger/repository"
	"github.com/vanigatech/vaniga/internal/metrics"
	"github.com/vanigatech/vaniga/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNode *snowflake.Node

func init() {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	testNode = node
}

type testEnv struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	business  businessdomain.Service
	customers customerdomain.Service
	ledger    domain.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&businessdomain.Business{},
		&domain.Transaction{},
		&customerdomain.Customer{},
	))

	log := zap.NewNop()
	m := metrics.NewWith(prometheus.NewRegistry())
	fake := clock.NewFakeClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))

	bRepo := businessrepo.Provide()
	cRepo := customerrepo.Provide()
	lRepo := ledgerrepo.Provide()

	businessSvc := businessservice.New(businessservice.Params{
		DB:         conn,
		Log:        log,
		GenID:      testNode,
		Repo:       bRepo,
		LedgerRepo: lRepo,
		Metrics:    m,
	})
	customerSvc := customerservice.New(customerservice.Params{
		DB:           conn,
		Log:          log,
		Cfg:          config.Config{CustomerNameMatch: "exact"},
		GenID:        testNode,
		Repo:         cRepo,
		LedgerRepo:   lRepo,
		BusinessRepo: bRepo,
		Metrics:      m,
	})
	ledgerSvc := New(Params{
		DB:        conn,
		Log:       log,
		Clock:     fake,
		GenID:     testNode,
		Repo:      lRepo,
		Customers: customerSvc,
		Business:  businessSvc,
		Metrics:   m,
	})

	return &testEnv{
		db:        conn,
		clock:     fake,
		business:  businessSvc,
		customers: customerSvc,
		ledger:    ledgerSvc,
	}
}

func (e *testEnv) newBusiness(t *testing.T) context.Context {
	t.Helper()
	b, err := e.business.Create(context.Background(), businessdomain.CreateBusinessRequest{
		Name: "Test Traders",
	})
	require.NoError(t, err)
	return bizcontext.WithBusinessID(context.Background(), b.ID)
}

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func TestCreateTransactionRunsFullChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	result, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(50000),
		CustomerName: "Asha",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)

	// 300 base + 250 capped volume + 10 consistency + 0 health.
	assert.Equal(t, 560, result.UpdatedScore)
	assert.False(t, result.LoanEligible)
	assert.False(t, result.ScoreStale)
	assert.Equal(t, domain.CategoryOther, result.Transaction.Category)
	assert.Equal(t, domain.PaymentMethodCash, result.Transaction.PaymentMethod)

	// The persisted score matches the response.
	business, err := env.business.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 560, business.Score)
	assert.False(t, business.LoanEligible)

	// The counterparty aggregate was created and rolled up.
	customer, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, customer.TotalCreditGiven)
	assert.Equal(t, 0.0, customer.TotalPaymentReceived)
	assert.Equal(t, 50000.0, customer.OutstandingBalance)
	require.NotNil(t, customer.LastTransactionAt)
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	longName := make([]byte, domain.MaxCustomerNameLen+1)
	for i := range longName {
		longName[i] = 'a'
	}

	cases := []struct {
		name string
		req  domain.CreateTransactionRequest
		want error
	}{
		{
			name: "missing kind",
			req:  domain.CreateTransactionRequest{Amount: f64(10)},
			want: domain.ErrInvalidKind,
		},
		{
			name: "unknown kind",
			req:  domain.CreateTransactionRequest{Kind: "loan_shark", Amount: f64(10)},
			want: domain.ErrInvalidKind,
		},
		{
			name: "missing amount",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindExpense)},
			want: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindExpense), Amount: f64(-5)},
			want: domain.ErrInvalidAmount,
		},
		{
			name: "negative tax",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindExpense), Amount: f64(5), TaxAmount: -1},
			want: domain.ErrInvalidAmount,
		},
		{
			name: "name too long",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindCreditGiven), Amount: f64(5), CustomerName: string(longName)},
			want: domain.ErrInvalidCustomerName,
		},
		{
			name: "unknown category",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindExpense), Amount: f64(5), Category: "briefcase"},
			want: domain.ErrInvalidCategory,
		},
		{
			name: "unknown payment method",
			req:  domain.CreateTransactionRequest{Kind: string(domain.KindExpense), Amount: f64(5), PaymentMethod: "barter"},
			want: domain.ErrInvalidPaymentMethod,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.ledger.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateTransactionRefreshesBothCounterparties(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	created, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(1000),
		CustomerName: "Asha",
	})
	require.NoError(t, err)

	result, err := env.ledger.Update(ctx, domain.UpdateTransactionRequest{
		ID:    created.Transaction.ID.String(),
		Patch: domain.TransactionPatch{CustomerName: str("Binu")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Binu", result.Transaction.CustomerName)

	// The old counterparty is zeroed, the new one carries the amount.
	asha, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, asha.TotalCreditGiven)
	assert.Equal(t, 0.0, asha.OutstandingBalance)

	binu, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Binu"})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, binu.TotalCreditGiven)
	assert.Equal(t, 1000.0, binu.OutstandingBalance)
}

func TestDeleteTransactionResetsScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	created, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(50000),
		CustomerName: "Asha",
	})
	require.NoError(t, err)
	require.Equal(t, 560, created.UpdatedScore)

	result, err := env.ledger.Delete(ctx, domain.DeleteTransactionRequest{
		ID: created.Transaction.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, 300, result.UpdatedScore)
	assert.False(t, result.LoanEligible)
	assert.False(t, result.ScoreStale)

	business, err := env.business.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, business.Score)

	asha, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, asha.OutstandingBalance)
}

func TestMutationOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctxA := env.newBusiness(t)
	ctxB := env.newBusiness(t)

	created, err := env.ledger.Create(ctxA, domain.CreateTransactionRequest{
		Kind:   string(domain.KindExpense),
		Amount: f64(100),
	})
	require.NoError(t, err)

	id := created.Transaction.ID.String()

	_, err = env.ledger.Update(ctxB, domain.UpdateTransactionRequest{
		ID:    id,
		Patch: domain.TransactionPatch{Amount: f64(1)},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.ledger.Delete(ctxB, domain.DeleteTransactionRequest{ID: id})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.ledger.Get(ctxB, domain.GetTransactionRequest{ID: id})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetTransactionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	_, err := env.ledger.Get(ctx, domain.GetTransactionRequest{ID: "not-a-number"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = env.ledger.Get(ctx, domain.GetTransactionRequest{ID: testNode.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactionsFilterAndPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	for i := 0; i < 5; i++ {
		_, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
			Kind:   string(domain.KindExpense),
			Amount: f64(float64(100 + i)),
		})
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
	}
	_, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(900),
		CustomerName: "Asha",
	})
	require.NoError(t, err)

	expenses, err := env.ledger.List(ctx, domain.ListTransactionsRequest{
		Kind: string(domain.KindExpense),
	})
	require.NoError(t, err)
	assert.Len(t, expenses.Transactions, 5)

	first, err := env.ledger.List(ctx, domain.ListTransactionsRequest{PageSize: 4})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 4)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := env.ledger.List(ctx, domain.ListTransactionsRequest{
		PageSize:  4,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	assert.Len(t, second.Transactions, 2)
	assert.False(t, second.HasMore)

	// Newest first.
	assert.Equal(t, 900.0, first.Transactions[0].Amount)
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	_, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(1000),
		CustomerName: "Asha",
	})
	require.NoError(t, err)
	_, err = env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindPaymentReceived),
		Amount:       f64(400),
		CustomerName: "Asha",
	})
	require.NoError(t, err)
	_, err = env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:     string(domain.KindExpense),
		Amount:   f64(200),
		Category: string(domain.CategoryRent),
	})
	require.NoError(t, err)

	resp, err := env.ledger.Dashboard(ctx, domain.DashboardRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, resp.Stats.TotalCreditGiven)
	assert.Equal(t, 400.0, resp.Stats.TotalPaymentReceived)
	assert.Equal(t, 200.0, resp.Stats.TotalExpenses)
	assert.Equal(t, 600.0, resp.Stats.PendingAmount)
	assert.Equal(t, 3, resp.Stats.TransactionCount)

	// 300 + min(1400*0.05,250)=70 + 10 + min(400/1000*50,50)=20.
	assert.Equal(t, 400, resp.ScoreBreakdown.Score)
	assert.Equal(t, 40, resp.ScoreBreakdown.Metrics.CollectionRatePercent)
}

func TestResyncRepairsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	_, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(2000),
		CustomerName: "Asha",
	})
	require.NoError(t, err)

	// Simulate drift in both derived stores.
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	require.True(t, ok)
	require.NoError(t, env.db.Model(&customerdomain.Customer{}).
		Where("business_id = ? AND name = ?", businessID, "Asha").
		Updates(map[string]any{"total_credit_given": 1, "outstanding_balance": 1}).Error)
	require.NoError(t, env.db.Model(&businessdomain.Business{}).
		Where("id = ?", businessID).
		Update("score", 880).Error)

	result, err := env.ledger.Resync(ctx)
	require.NoError(t, err)

	// 300 + min(2000*0.05,250)=100 + 10 + 0.
	assert.Equal(t, 410, result.Score)

	asha, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, asha.TotalCreditGiven)
	assert.Equal(t, 2000.0, asha.OutstandingBalance)

	business, err := env.business.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 410, business.Score)
}

func TestCreateFallsBackWhenScoreUnavailable(t *testing.T) {
	env := newTestEnv(t)

	// A ledger write for a business with no record cannot recompute a score;
	// the write still lands and the response is marked stale.
	ctx := bizcontext.WithBusinessID(context.Background(), testNode.Generate())

	result, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:   string(domain.KindExpense),
		Amount: f64(50),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)

	assert.True(t, result.ScoreStale)
	assert.Equal(t, 300, result.UpdatedScore)
	assert.False(t, result.LoanEligible)
}

func TestOldTransactionsOutsideWindowDoNotScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.newBusiness(t)

	old := env.clock.Now().AddDate(0, 0, -45)
	result, err := env.ledger.Create(ctx, domain.CreateTransactionRequest{
		Kind:         string(domain.KindCreditGiven),
		Amount:       f64(9000),
		CustomerName: "Asha",
		OccurredAt:   &old,
	})
	require.NoError(t, err)

	// The write lands outside the 30-day window, so the score stays at base.
	assert.Equal(t, 300, result.UpdatedScore)

	// The aggregate still reflects the full ledger history.
	asha, err := env.customers.GetByName(ctx, customerdomain.GetCustomerRequest{Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, asha.TotalCreditGiven)
}
