package providers

import (
	"github.com/smallbiznis/cicilan/internal/providers/email"
	"github.com/smallbiznis/cicilan/internal/providers/events"
	"github.com/smallbiznis/cicilan/internal/providers/pdf"
	"github.com/smallbiznis/cicilan/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	events.Module,
	pdf.Module,
	storage.Module,
)
