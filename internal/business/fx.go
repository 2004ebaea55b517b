package business

import (
	"github.com/vanigatech/vaniga/internal/business/repository"
	"github.com/vanigatech/vaniga/internal/business/service"
	"go.uber.org/fx"
)

var Module = fx.Module("business.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
