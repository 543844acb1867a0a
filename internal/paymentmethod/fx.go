package paymentmethod

import (
	"github.com/smallbiznis/cicilan/internal/paymentmethod/repository"
	"github.com/smallbiznis/cicilan/internal/paymentmethod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentmethod.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
