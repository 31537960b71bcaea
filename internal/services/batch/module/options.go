package module

import (
	"time"

	"leveler/internal/platform/config"
)

// Options holds configuration options for the batch service
type Options struct {
	Workers     int
	RatePerSec  float64
	RateBurst   int
	ItemRetries int
	RetryBase   time.Duration
	ItemTimeout time.Duration
	DBTimeout   time.Duration

	EnableLeases bool
	LeaseTTL     time.Duration
}

// FromConfig reads the batch options from config with CORE_BATCH_ prefix
func FromConfig(cfg config.Conf) Options {
	bf := cfg.Prefix("CORE_BATCH_")
	return Options{
		Workers:     bf.MayInt("WORKERS", 4),
		RatePerSec:  bf.MayFloat64("RATE_PER_SEC", 2),
		RateBurst:   bf.MayInt("RATE_BURST", 4),
		ItemRetries: bf.MayInt("ITEM_RETRIES", 3),
		RetryBase:   bf.MayDuration("RETRY_BASE", 500*time.Millisecond),
		ItemTimeout: bf.MayDuration("ITEM_TIMEOUT", 10*time.Minute),
		DBTimeout:   bf.MayDuration("DB_TIMEOUT", 10*time.Second),

		EnableLeases: bf.MayBool("LEASES", true),
		LeaseTTL:     bf.MayDuration("LEASE_TTL", 30*time.Minute),
	}
}
