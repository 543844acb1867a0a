package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultRejectNote is attached to rejected payments when the admin gives no reason.
const DefaultRejectNote = "Pembayaran ditolak oleh admin"

// LedgerPolicy holds the tunable installment ledger rules.
type LedgerPolicy struct {
	RejectNote        string        `mapstructure:"rejectNote"`
	ReservationTTL    time.Duration `mapstructure:"reservationTTL"`
	MaxWeeksPerSubmit int           `mapstructure:"maxWeeksPerSubmit"`
	SubmitRate        int           `mapstructure:"submitRate"`
	SubmitBurst       int           `mapstructure:"submitBurst"`
	StatsCacheTTL     time.Duration `mapstructure:"statsCacheTTL"`
}

func DefaultLedgerPolicy() LedgerPolicy {
	return LedgerPolicy{
		RejectNote:        DefaultRejectNote,
		ReservationTTL:    72 * time.Hour,
		MaxWeeksPerSubmit: 52,
		SubmitRate:        1,
		SubmitBurst:       10,
		StatsCacheTTL:     30 * time.Second,
	}
}

type LedgerPolicyHolder struct {
	current atomic.Value // holds LedgerPolicy
}

// NewLedgerPolicyHolder reads ledger.yml and keeps it in sync with the file on disk.
func NewLedgerPolicyHolder(log *zap.Logger) (*LedgerPolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.ledger")

	v := viper.New()
	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/cicilan")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CICILAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerPolicy()
	v.SetDefault("ledger.rejectNote", defaults.RejectNote)
	v.SetDefault("ledger.reservationTTL", defaults.ReservationTTL)
	v.SetDefault("ledger.maxWeeksPerSubmit", defaults.MaxWeeksPerSubmit)
	v.SetDefault("ledger.submitRate", defaults.SubmitRate)
	v.SetDefault("ledger.submitBurst", defaults.SubmitBurst)
	v.SetDefault("ledger.statsCacheTTL", defaults.StatsCacheTTL)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg LedgerPolicy
	if err := v.UnmarshalKey("ledger", &cfg); err != nil {
		return nil, err
	}
	if err := validateLedgerPolicy(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticLedgerPolicyHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LedgerPolicy
		if err := v.UnmarshalKey("ledger", &updated); err != nil {
			log.Warn("ledger policy reload failed", zap.Error(err))
			return
		}
		if err := validateLedgerPolicy(updated); err != nil {
			log.Warn("invalid ledger policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("ledger policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticLedgerPolicyHolder wraps a fixed policy.
func NewStaticLedgerPolicyHolder(policy LedgerPolicy) *LedgerPolicyHolder {
	holder := &LedgerPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *LedgerPolicyHolder) Get() LedgerPolicy {
	if h == nil {
		return DefaultLedgerPolicy()
	}
	return h.current.Load().(LedgerPolicy)
}

func validateLedgerPolicy(cfg LedgerPolicy) error {
	if strings.TrimSpace(cfg.RejectNote) == "" {
		return errors.New("ledger.rejectNote cannot be empty")
	}
	if cfg.ReservationTTL <= 0 {
		return errors.New("ledger.reservationTTL must be positive")
	}
	if cfg.MaxWeeksPerSubmit <= 0 {
		return errors.New("ledger.maxWeeksPerSubmit must be positive")
	}
	if cfg.SubmitRate <= 0 || cfg.SubmitBurst <= 0 {
		return errors.New("ledger.submitRate and ledger.submitBurst must be positive")
	}
	return nil
}
