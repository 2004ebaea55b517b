package customer

import (
	"github.com/vanigatech/vaniga/internal/customer/repository"
	"github.com/vanigatech/vaniga/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
