package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/bizcontext"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/clock"
	customerdomain "github.com/vanigatech/vaniga/internal/customer/domain"
	"github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/internal/metrics"
	"github.com/vanigatech/vaniga/internal/scoring"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Repo      domain.Repository
	Customers customerdomain.Service
	Business  businessdomain.Service
	Metrics   *metrics.Metrics
}

// Service coordinates the consistency chain: ledger write, conditional
// aggregate refresh, score recompute, eligibility update. The steps run
// serialized within one request; committed steps are never rolled back
// because every derived value is recomputable from the ledger.
type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	repo      domain.Repository
	customers customerdomain.Service
	business  businessdomain.Service
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("ledger.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      p.Repo,
		customers: p.Customers,
		business:  p.Business,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTransactionRequest) (domain.MutationResult, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.MutationResult{}, businessdomain.ErrInvalidBusiness
	}

	txn, err := s.buildTransaction(businessID, req)
	if err != nil {
		return domain.MutationResult{}, err
	}

	if err := s.repo.Insert(ctx, s.db, txn); err != nil {
		return domain.MutationResult{}, err
	}
	s.metrics.TransactionMutations.WithLabelValues("create").Inc()

	result := s.finishMutation(ctx, refreshTargets(txn.CustomerName, txn.Kind))
	result.Transaction = txn
	return result, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTransactionRequest) (domain.MutationResult, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.MutationResult{}, businessdomain.ErrInvalidBusiness
	}

	txn, err := s.findOwned(ctx, businessID, req.ID)
	if err != nil {
		return domain.MutationResult{}, err
	}

	prevName, prevKind := txn.CustomerName, txn.Kind

	if err := s.applyPatch(txn, req.Patch); err != nil {
		return domain.MutationResult{}, err
	}

	if err := s.repo.Update(ctx, s.db, txn); err != nil {
		return domain.MutationResult{}, err
	}
	s.metrics.TransactionMutations.WithLabelValues("update").Inc()

	// Both the previous and the new counterparty need a refresh when an
	// update moves a transaction between them.
	targets := refreshTargets(prevName, prevKind)
	for _, t := range refreshTargets(txn.CustomerName, txn.Kind) {
		if !contains(targets, t) {
			targets = append(targets, t)
		}
	}

	result := s.finishMutation(ctx, targets)
	result.Transaction = txn
	return result, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteTransactionRequest) (domain.MutationResult, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.MutationResult{}, businessdomain.ErrInvalidBusiness
	}

	txn, err := s.findOwned(ctx, businessID, req.ID)
	if err != nil {
		return domain.MutationResult{}, err
	}

	// Capture before deletion; the refresh needs them afterwards.
	name, kind := txn.CustomerName, txn.Kind

	if err := s.repo.Delete(ctx, s.db, txn.ID); err != nil {
		return domain.MutationResult{}, err
	}
	s.metrics.TransactionMutations.WithLabelValues("delete").Inc()

	return s.finishMutation(ctx, refreshTargets(name, kind)), nil
}

func (s *Service) Get(ctx context.Context, req domain.GetTransactionRequest) (domain.Transaction, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.Transaction{}, businessdomain.ErrInvalidBusiness
	}

	txn, err := s.findOwned(ctx, businessID, req.ID)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *txn, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTransactionsRequest) (domain.ListTransactionsResponse, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.ListTransactionsResponse{}, businessdomain.ErrInvalidBusiness
	}

	filter := domain.ListFilter{From: req.From, To: req.To}
	if req.Kind != "" {
		kind := domain.Kind(req.Kind)
		if !kind.Valid() {
			return domain.ListTransactionsResponse{}, domain.ErrInvalidKind
		}
		filter.Kind = kind
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, businessID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListTransactionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(txn *domain.Transaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: txn.ID.String(),
			At: txn.OccurredAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	txns := make([]domain.Transaction, 0, len(items))
	for _, item := range items {
		txns = append(txns, *item)
	}

	resp := domain.ListTransactionsResponse{Transactions: txns}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Dashboard(ctx context.Context, req domain.DashboardRequest) (domain.DashboardResponse, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.DashboardResponse{}, businessdomain.ErrInvalidBusiness
	}

	days := req.WindowDays
	if days <= 0 {
		days = scoring.WindowDays
	}

	asOf := s.clock.Now()
	window, err := s.repo.ListWindow(ctx, s.db, businessID, asOf.AddDate(0, 0, -days), asOf)
	if err != nil {
		return domain.DashboardResponse{}, err
	}

	var stats domain.DashboardStats
	for _, txn := range window {
		switch txn.Kind {
		case domain.KindCreditGiven:
			stats.TotalCreditGiven += txn.Amount
		case domain.KindPaymentReceived:
			stats.TotalPaymentReceived += txn.Amount
		case domain.KindExpense:
			stats.TotalExpenses += txn.Amount
		}
	}
	stats.PendingAmount = stats.TotalCreditGiven - stats.TotalPaymentReceived
	stats.TransactionCount = len(window)

	return domain.DashboardResponse{
		Stats:          stats,
		ScoreBreakdown: scoring.Compute(window),
	}, nil
}

func (s *Service) Resync(ctx context.Context) (businessdomain.ScoreResult, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return businessdomain.ScoreResult{}, businessdomain.ErrInvalidBusiness
	}

	names, err := s.repo.DistinctCustomerNames(ctx, s.db, businessID)
	if err != nil {
		return businessdomain.ScoreResult{}, err
	}
	for _, name := range names {
		if _, err := s.customers.Refresh(ctx, customerdomain.RefreshRequest{Name: name}); err != nil {
			return businessdomain.ScoreResult{}, err
		}
	}

	result, err := s.business.RecomputeScore(ctx, s.clock.Now())
	if err != nil {
		return businessdomain.ScoreResult{}, err
	}

	s.log.Info("ledger resynced",
		zap.String("business_id", businessID.String()),
		zap.Int("aggregates", len(names)),
		zap.Int("score", result.Score),
	)
	return result, nil
}

// finishMutation runs the post-write steps of the chain. The ledger write is
// already committed, so failures here degrade instead of erroring: the score
// falls back to the last persisted value and the response is marked stale.
func (s *Service) finishMutation(ctx context.Context, targets []string) domain.MutationResult {
	for _, name := range targets {
		if _, err := s.customers.Refresh(ctx, customerdomain.RefreshRequest{Name: name}); err != nil &&
			!errors.Is(err, customerdomain.ErrNotFound) {
			s.log.Warn("aggregate refresh failed", zap.String("customer", name), zap.Error(err))
		}
	}

	result, err := s.business.RecomputeScore(ctx, s.clock.Now())
	if err != nil {
		s.metrics.ScoreRecomputeFailures.Inc()
		s.log.Warn("score recompute failed, serving last persisted score", zap.Error(err))

		if business, getErr := s.business.Get(ctx); getErr == nil {
			return domain.MutationResult{
				UpdatedScore: business.Score,
				LoanEligible: business.LoanEligible,
				ScoreStale:   true,
			}
		}
		return domain.MutationResult{UpdatedScore: scoring.BaseScore, ScoreStale: true}
	}

	return domain.MutationResult{
		UpdatedScore: result.Score,
		LoanEligible: scoring.IsLoanEligible(result.Score),
	}
}

func (s *Service) findOwned(ctx context.Context, businessID snowflake.ID, rawID string) (*domain.Transaction, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrNotFound
	}
	if txn.BusinessID != businessID {
		return nil, domain.ErrForbidden
	}
	return txn, nil
}

func (s *Service) buildTransaction(businessID snowflake.ID, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	kind := domain.Kind(req.Kind)
	if req.Kind == "" || !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if req.Amount == nil || *req.Amount < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.TaxAmount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	name := strings.TrimSpace(req.CustomerName)
	if len(name) > domain.MaxCustomerNameLen {
		return nil, domain.ErrInvalidCustomerName
	}

	description := strings.TrimSpace(req.Description)
	if len(description) > domain.MaxDescriptionLen {
		return nil, domain.ErrInvalidDescription
	}

	category := domain.Category(req.Category)
	if req.Category == "" {
		category = domain.CategoryOther
	} else if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if req.PaymentMethod == "" {
		method = domain.PaymentMethodCash
	} else if !method.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	now := s.clock.Now()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	txn := &domain.Transaction{
		ID:            s.genID.Generate(),
		BusinessID:    businessID,
		Kind:          kind,
		Amount:        *req.Amount,
		CustomerName:  name,
		Description:   description,
		Category:      category,
		TaxAmount:     req.TaxAmount,
		PaymentMethod: method,
		OccurredAt:    occurredAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Metadata != nil {
		txn.Metadata = datatypes.JSONMap(req.Metadata)
	}
	return txn, nil
}

func (s *Service) applyPatch(txn *domain.Transaction, patch domain.TransactionPatch) error {
	if patch.Kind != nil {
		kind := domain.Kind(*patch.Kind)
		if !kind.Valid() {
			return domain.ErrInvalidKind
		}
		txn.Kind = kind
	}
	if patch.Amount != nil {
		if *patch.Amount < 0 {
			return domain.ErrInvalidAmount
		}
		txn.Amount = *patch.Amount
	}
	if patch.CustomerName != nil {
		name := strings.TrimSpace(*patch.CustomerName)
		if len(name) > domain.MaxCustomerNameLen {
			return domain.ErrInvalidCustomerName
		}
		txn.CustomerName = name
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if len(description) > domain.MaxDescriptionLen {
			return domain.ErrInvalidDescription
		}
		txn.Description = description
	}
	if patch.Category != nil {
		category := domain.Category(*patch.Category)
		if *patch.Category == "" {
			category = domain.CategoryOther
		} else if !category.Valid() {
			return domain.ErrInvalidCategory
		}
		txn.Category = category
	}
	if patch.TaxAmount != nil {
		if *patch.TaxAmount < 0 {
			return domain.ErrInvalidAmount
		}
		txn.TaxAmount = *patch.TaxAmount
	}
	if patch.PaymentMethod != nil {
		method := domain.PaymentMethod(*patch.PaymentMethod)
		if !method.Valid() {
			return domain.ErrInvalidPaymentMethod
		}
		txn.PaymentMethod = method
	}
	if patch.OccurredAt != nil {
		txn.OccurredAt = patch.OccurredAt.UTC()
	}
	txn.UpdatedAt = s.clock.Now()
	return nil
}

// refreshTargets returns the counterparty to refresh for a name/kind pair,
// empty when the pair does not feed an aggregate.
func refreshTargets(name string, kind domain.Kind) []string {
	if name == "" || !kind.FeedsCustomerAggregate() {
		return nil
	}
	return []string{name}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
