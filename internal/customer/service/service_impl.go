package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vanigatech/vaniga/internal/bizcontext"
	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	"github.com/vanigatech/vaniga/internal/config"
	"github.com/vanigatech/vaniga/internal/customer/domain"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
	"github.com/vanigatech/vaniga/internal/metrics"
	"github.com/vanigatech/vaniga/pkg/db"
	"github.com/vanigatech/vaniga/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Cfg          config.Config
	GenID        *snowflake.Node
	Repo         domain.Repository
	LedgerRepo   ledgerdomain.Repository
	BusinessRepo businessdomain.Repository
	Metrics      *metrics.Metrics
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	match        domain.NameMatch
	repo         domain.Repository
	ledgerRepo   ledgerdomain.Repository
	businessRepo businessdomain.Repository
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("customer.service"),
		genID:        p.GenID,
		match:        domain.ParseNameMatch(p.Cfg.CustomerNameMatch),
		repo:         p.Repo,
		ledgerRepo:   p.LedgerRepo,
		businessRepo: p.BusinessRepo,
		metrics:      p.Metrics,
	}
}

func (s *Service) Refresh(ctx context.Context, req domain.RefreshRequest) (domain.Customer, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.Customer{}, businessdomain.ErrInvalidBusiness
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	business, err := s.businessRepo.FindByID(ctx, s.db, businessID)
	if err != nil {
		return domain.Customer{}, err
	}
	if business == nil {
		return domain.Customer{}, businessdomain.ErrNotFound
	}

	rows, err := s.ledgerRepo.ListByCustomer(ctx, s.db, businessID, name, s.match)
	if err != nil {
		return domain.Customer{}, err
	}

	customer, err := s.repo.FindByName(ctx, s.db, businessID, name, s.match)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		if len(rows) == 0 {
			return domain.Customer{}, domain.ErrNotFound
		}
		customer, err = s.create(ctx, businessID, name)
		if err != nil {
			return domain.Customer{}, err
		}
	}

	var given, received float64
	var lastAt *time.Time
	for _, row := range rows {
		switch row.Kind {
		case ledgerdomain.KindCreditGiven:
			given += row.Amount
		case ledgerdomain.KindPaymentReceived:
			received += row.Amount
		}
		if lastAt == nil || row.OccurredAt.After(*lastAt) {
			at := row.OccurredAt
			lastAt = &at
		}
	}

	customer.TotalCreditGiven = given
	customer.TotalPaymentReceived = received
	customer.OutstandingBalance = given - received
	customer.LastTransactionAt = lastAt
	customer.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		return domain.Customer{}, err
	}

	s.metrics.AggregateRefreshes.Inc()
	s.log.Debug("customer aggregate refreshed",
		zap.String("business_id", businessID.String()),
		zap.String("customer", customer.Name),
		zap.Float64("outstanding", customer.OutstandingBalance),
	)
	return *customer, nil
}

// create seeds a zeroed aggregate the first time a counterparty is referenced.
// A concurrent refresh can win the insert race; fall back to its row.
func (s *Service) create(ctx context.Context, businessID snowflake.ID, name string) (*domain.Customer, error) {
	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:         s.genID.Generate(),
		BusinessID: businessID,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.repo.Insert(ctx, s.db, customer)
	if err == nil {
		return customer, nil
	}
	if !db.IsDuplicateKeyErr(err) {
		return nil, err
	}

	existing, findErr := s.repo.FindByName(ctx, s.db, businessID, name, s.match)
	if findErr != nil {
		return nil, findErr
	}
	if existing == nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) GetByName(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.Customer{}, businessdomain.ErrInvalidBusiness
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	customer, err := s.repo.FindByName(ctx, s.db, businessID, name, s.match)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomersRequest) (domain.ListCustomersResponse, error) {
	businessID, ok := bizcontext.BusinessIDFromContext(ctx)
	if !ok {
		return domain.ListCustomersResponse{}, businessdomain.ErrInvalidBusiness
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, businessID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListCustomersResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: customer.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}

	resp := domain.ListCustomersResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
