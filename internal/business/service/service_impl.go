package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/bizcontext"
	"github.com/vanigatech/vaniga/internal/business/domain"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/internal/metrics"
	"github.com/vanigatech/vaniga/internal/scoring"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	LedgerRepo ledgerdomain.Repository
	Metrics    *metrics.Metrics
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	ledgerRepo ledgerdomain.Repository
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("business.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		ledgerRepo: p.LedgerRepo,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBusinessRequest) (domain.Business, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Business{}, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	business := domain.Business{
		ID:           s.genID.Generate(),
		Name:         name,
		OwnerName:    strings.TrimSpace(req.OwnerName),
		Phone:        strings.TrimSpace(req.Phone),
		Score:        scoring.BaseScore,
		LoanEligible: false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &business); err != nil {
		return domain.Business{}, err
	}

	s.log.Info("business created", zap.String("business_id", business.ID.String()))
	return business, nil
}

func (s *Service) Get(ctx context.Context) (domain.Business, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.Business{}, domain.ErrInvalidBusiness
	}

	business, err := s.repo.FindByID(ctx, s.db, businessID)
	if err != nil {
		return domain.Business{}, err
	}
	if business == nil {
		return domain.Business{}, domain.ErrNotFound
	}
	return *business, nil
}

func (s *Service) RecomputeScore(ctx context.Context, asOf time.Time) (domain.ScoreResult, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.ScoreResult{}, domain.ErrInvalidBusiness
	}

	business, err := s.repo.FindByID(ctx, s.db, businessID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	if business == nil {
		return domain.ScoreResult{}, domain.ErrNotFound
	}

	from, to := scoring.Window(asOf)
	window, err := s.ledgerRepo.ListWindow(ctx, s.db, businessID, from, to)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	result := scoring.Compute(window)
	eligible := scoring.IsLoanEligible(result.Score)

	if err := s.repo.UpdateScore(ctx, s.db, businessID, result.Score, eligible); err != nil {
		return domain.ScoreResult{}, err
	}

	s.metrics.ScoreRecomputations.Inc()
	s.log.Debug("score recomputed",
		zap.String("business_id", businessID.String()),
		zap.Int("score", result.Score),
		zap.Bool("loan_eligible", eligible),
	)
	return result, nil
}
