package payment

import (
	"github.com/smallbiznis/cicilan/internal/payment/repository"
	"github.com/smallbiznis/cicilan/internal/payment/service"
	"github.com/smallbiznis/cicilan/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(
		func(r *ratelimit.WeekReserver) service.WeekReservations { return r },
		func(l *ratelimit.SubmissionLimiter) service.SubmissionLimiter { return l },
	),
	fx.Provide(service.New),
)
