package ledger

import (
	"github.com/vanigatech/vaniga/internal/ledger/repository"
	"github.com/vanigatech/vaniga/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
