package domain

import (
	"context"
	"errors"

	"github.com/vanigatech/vaniga/pkg/db/pagination"
)

type RefreshRequest struct {
	Name string
}

type GetCustomerRequest struct {
	Name string
}

type ListCustomersRequest struct {
	PageToken string
	PageSize  int32
}

type ListCustomersResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	// Refresh fully recomputes one counterparty's totals from the ledger and
	// persists them, creating the aggregate lazily on first reference.
	// Idempotent: repeated calls without ledger changes rewrite the same values.
	Refresh(context.Context, RefreshRequest) (Customer, error)
	GetByName(context.Context, GetCustomerRequest) (Customer, error)
	List(context.Context, ListCustomersRequest) (ListCustomersResponse, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
)
