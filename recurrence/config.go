package recurrence

import (
	"io"
	"log/slog"
	"time"
)

// DefaultFallbackHorizon bounds expansion of rules that have neither UNTIL
// nor COUNT: 126230400 seconds, about four years.
const DefaultFallbackHorizon = 126230400 * time.Second

// Config holds configuration options for the Expander
type Config struct {
	// FallbackHorizon is added to the anchor start to get the cutoff of
	// unbounded rules
	FallbackHorizon time.Duration
	// MaxOccurrences truncates windowed expansion (0 = unlimited)
	MaxOccurrences int
	// FullRFC expands with rrule-go, applying every BY filter
	FullRFC bool

	CacheEnabled bool
	CacheConfig  CacheConfig

	Logger *slog.Logger
}

// DefaultConfig expands natively with a result cache
var DefaultConfig = Config{
	FallbackHorizon: DefaultFallbackHorizon,
	CacheEnabled:    true,
	CacheConfig:     DefaultCacheConfig,
}

// RFCConfig expands with full RFC 5545 semantics
var RFCConfig = Config{
	FallbackHorizon: DefaultFallbackHorizon,
	MaxOccurrences:  1000,
	FullRFC:         true,
	CacheEnabled:    true,
	CacheConfig:     DefaultCacheConfig,
}

// NoCacheConfig turns off caching entirely
var NoCacheConfig = Config{
	FallbackHorizon: DefaultFallbackHorizon,
}

// NewExpander creates an Expander with DefaultConfig
func NewExpander() *Expander {
	return NewExpanderWithConfig(DefaultConfig)
}

// NewExpanderWithConfig creates an Expander with custom configuration
func NewExpanderWithConfig(config Config) *Expander {
	if config.FallbackHorizon <= 0 {
		config.FallbackHorizon = DefaultFallbackHorizon
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var cache *Cache
	if config.CacheEnabled {
		cache = NewCache(config.CacheConfig)
	}

	return &Expander{
		config: config,
		cache:  cache,
		logger: config.Logger,
	}
}
