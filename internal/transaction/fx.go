package transaction

import (
	"github.com/smallbiznis/cicilan/internal/ratelimit"
	"github.com/smallbiznis/cicilan/internal/transaction/repository"
	"github.com/smallbiznis/cicilan/internal/transaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(r *ratelimit.WeekReserver) service.Reservations { return r }),
	fx.Provide(service.New),
)
