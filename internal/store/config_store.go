package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/pkg/pricing"
	"go.uber.org/zap"
)

// ConfigStore owns the single persisted pricing configuration.
type ConfigStore struct {
	kv     KV
	logger *otelzap.Logger
}

// NewConfigStore creates a config store over kv.
func NewConfigStore(kv KV, logger *otelzap.Logger) *ConfigStore {
	return &ConfigStore{kv: kv, logger: logger}
}

var errEmptyConfig = errors.New("stored pricing config has no base fees or exchange rates")

// Get returns the stored configuration. When nothing is stored, or the stored
// value cannot be read, parsed or holds no fees or rates, the defaults are
// persisted and returned.
func (s *ConfigStore) Get(ctx context.Context) pricing.Config {
	raw, ok, err := s.kv.Get(ctx, KeyPricingConfig)
	if err != nil {
		s.logger.Ctx(ctx).Error("Reading pricing config failed, using defaults", zap.Error(err))
		return pricing.DefaultConfig()
	}
	if ok {
		var cfg pricing.Config
		err := json.Unmarshal(raw, &cfg)
		if err == nil && len(cfg.BaseFees) > 0 && len(cfg.ExchangeRates) > 0 {
			return cfg
		}
		if err == nil {
			err = errEmptyConfig
		}
		s.logger.Ctx(ctx).Warn("Stored pricing config is corrupt, restoring defaults", zap.Error(err))
	}

	cfg := pricing.DefaultConfig()
	if err := s.Set(ctx, cfg); err != nil {
		s.logger.Ctx(ctx).Error("Persisting default pricing config failed", zap.Error(err))
	}
	return cfg
}

// Set replaces the stored configuration wholesale. There is no merge: callers
// wanting a partial update read, modify and write back.
func (s *ConfigStore) Set(ctx context.Context, cfg pricing.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding pricing config: %w", err)
	}
	if err := s.kv.Put(ctx, KeyPricingConfig, raw); err != nil {
		return fmt.Errorf("saving pricing config: %w", err)
	}
	return nil
}

// Reset restores and returns the default configuration.
func (s *ConfigStore) Reset(ctx context.Context) (pricing.Config, error) {
	cfg := pricing.DefaultConfig()
	return cfg, s.Set(ctx, cfg)
}
