package email

import (
	"github.com/smallbiznis/cicilan/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Sender {
	if cfg.Email.Provider != "smtp" || cfg.Email.SMTPHost == "" {
		log.Info("email delivery disabled", zap.String("provider", cfg.Email.Provider))
		return NoOpSender{}
	}
	return NewSMTP(Config{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	})
}
