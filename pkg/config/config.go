package config

import (
	"fmt"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

// Config is the root configuration for the validation engine.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
}

// EngineConfig holds the tunable policy of the orchestrator, aggregator
// and classifier. All values are operator-supplied; nothing is learned.
type EngineConfig struct {
	// GlobalTimeoutMs bounds one whole validation request. Must be
	// strictly greater than every tier timeout.
	GlobalTimeoutMs int `yaml:"global_timeout_ms"`

	// TierTimeoutsMs maps tier identifiers to their individual
	// timeouts in milliseconds.
	TierTimeoutsMs map[string]int `yaml:"tier_timeouts_ms"`

	// TrustWeights maps tier identifiers to fixed trust weights in
	// (0,1]. Higher means the tier's evidence is more reliable in
	// isolation.
	TrustWeights map[string]float64 `yaml:"trust_weights"`

	// HighTrustFloor is the minimum trust weight at which a tier
	// counts as high-trust for classification.
	HighTrustFloor float64 `yaml:"high_trust_floor"`

	// MaxConcurrentTiers bounds parallel provider calls per request.
	MaxConcurrentTiers int `yaml:"max_concurrent_tiers"`

	Thresholds Thresholds      `yaml:"thresholds"`
	Agreement  AgreementConfig `yaml:"agreement"`
}

// Thresholds are the four fixed classification boundaries. Ordering is
// enforced by Validate: low <= ambiguous_low < ambiguous_high < high.
type Thresholds struct {
	// High is the confidence above which corroborated evidence
	// validates the candidate label.
	High float64 `yaml:"high"`
	// Low is the confidence below which agreement no longer counts as
	// support and the outcome is unclear.
	Low float64 `yaml:"low"`
	// AmbiguousLow and AmbiguousHigh bound the middle band that maps
	// to ambiguous_descriptor. Uncontested agreement at or above
	// AmbiguousHigh reads as a clear match.
	AmbiguousLow  float64 `yaml:"ambiguous_low"`
	AmbiguousHigh float64 `yaml:"ambiguous_high"`
}

// AgreementConfig controls cross-tier corroboration.
type AgreementConfig struct {
	// Bonus multiplies a tier's weight when its label is corroborated
	// by a higher-trust tier. Must be >= 1.
	Bonus float64 `yaml:"bonus"`
	// Epsilon is the confidence gap below which two competing labels
	// are treated as tied; the higher-trust tier wins the tie.
	Epsilon float64 `yaml:"epsilon"`
	// StrongDisagreement is the confidence at which a dissenting
	// high-trust tier is treated as a confident alternative.
	StrongDisagreement float64 `yaml:"strong_disagreement"`
}

// ProvidersConfig holds per-tier client settings.
type ProvidersConfig struct {
	Vector         VectorProviderConfig  `yaml:"vector"`
	WebSearch      WebSearchConfig       `yaml:"web_search"`
	AISummary      AISummaryConfig       `yaml:"ai_summary"`
	Vision         VisionConfig          `yaml:"vision"`
	KnowledgeGraph KnowledgeGraphConfig  `yaml:"knowledge_graph"`
	Embedding      EmbeddingClientConfig `yaml:"embedding"`
}

// VectorProviderConfig configures the vector-similarity tier.
type VectorProviderConfig struct {
	// Backend selects the vector store: "milvus" or "chroma".
	Backend    string `yaml:"backend"`
	Endpoint   string `yaml:"endpoint"`
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`

	// Embedding configures the service used to embed query text
	// before searching.
	Embedding EmbeddingClientConfig `yaml:"embedding"`
}

// WebSearchConfig configures the web-search tier.
type WebSearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxResults int    `yaml:"max_results"`
}

// AISummaryConfig configures the AI search-summarization tier.
type AISummaryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// VisionConfig configures the vision logo-classification tier.
type VisionConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	// MaxImages caps how many image URLs are sent per request.
	MaxImages int `yaml:"max_images"`
}

// KnowledgeGraphConfig configures the knowledge-graph lookup tier.
type KnowledgeGraphConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
	Limit     int    `yaml:"limit"`
}

// EmbeddingClientConfig configures an OpenAI-compatible embedding
// endpoint.
type EmbeddingClientConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// CacheConfig configures the optional verdict cache.
type CacheConfig struct {
	Enabled    bool        `yaml:"enabled"`
	Backend    string      `yaml:"backend"` // "memory" or "redis"
	TTLSeconds int         `yaml:"ttl_seconds"`
	MaxEntries int         `yaml:"max_entries"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the verdict cache.
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	Database  int    `yaml:"database"`
	KeyPrefix string `yaml:"key_prefix"`
}

// TierTimeout returns the configured timeout for a tier.
func (e *EngineConfig) TierTimeout(tier evidence.TierID) time.Duration {
	return time.Duration(e.TierTimeoutsMs[string(tier)]) * time.Millisecond
}

// GlobalTimeout returns the global request deadline.
func (e *EngineConfig) GlobalTimeout() time.Duration {
	return time.Duration(e.GlobalTimeoutMs) * time.Millisecond
}

// TrustWeight returns the fixed trust weight for a tier.
func (e *EngineConfig) TrustWeight(tier evidence.TierID) float64 {
	return e.TrustWeights[string(tier)]
}

// IsHighTrust reports whether a tier counts as high-trust.
func (e *EngineConfig) IsHighTrust(tier evidence.TierID) bool {
	return e.TrustWeight(tier) >= e.HighTrustFloor
}

// applyEngineDefaults fills unset engine values with the shipped
// defaults. Defaults are a starting point for tuning, not policy.
func applyEngineDefaults(e *EngineConfig) {
	if e.GlobalTimeoutMs == 0 {
		e.GlobalTimeoutMs = 15000
	}
	if e.TierTimeoutsMs == nil {
		e.TierTimeoutsMs = map[string]int{}
	}
	defaults := map[string]int{
		string(evidence.TierVectorSimilarity): 2000,
		string(evidence.TierWebSearch):        4000,
		string(evidence.TierAISummary):        6000,
		string(evidence.TierVision):           8000,
		string(evidence.TierKnowledgeGraph):   2000,
		string(evidence.TierEmbedding):        3000,
	}
	for tier, ms := range defaults {
		if e.TierTimeoutsMs[tier] == 0 {
			e.TierTimeoutsMs[tier] = ms
		}
	}
	if e.TrustWeights == nil {
		e.TrustWeights = map[string]float64{}
	}
	weights := map[string]float64{
		string(evidence.TierVision):           1.0,
		string(evidence.TierKnowledgeGraph):   0.95,
		string(evidence.TierVectorSimilarity): 0.8,
		string(evidence.TierAISummary):        0.7,
		string(evidence.TierEmbedding):        0.6,
		string(evidence.TierWebSearch):        0.5,
	}
	for tier, w := range weights {
		if e.TrustWeights[tier] == 0 {
			e.TrustWeights[tier] = w
		}
	}
	if e.HighTrustFloor == 0 {
		e.HighTrustFloor = 0.9
	}
	if e.MaxConcurrentTiers == 0 {
		e.MaxConcurrentTiers = len(evidence.AllTiers)
	}
	if e.Thresholds.High == 0 {
		e.Thresholds.High = 0.85
	}
	if e.Thresholds.Low == 0 {
		e.Thresholds.Low = 0.4
	}
	if e.Thresholds.AmbiguousLow == 0 {
		e.Thresholds.AmbiguousLow = 0.45
	}
	if e.Thresholds.AmbiguousHigh == 0 {
		e.Thresholds.AmbiguousHigh = 0.7
	}
	if e.Agreement.Bonus == 0 {
		e.Agreement.Bonus = 1.25
	}
	if e.Agreement.Epsilon == 0 {
		e.Agreement.Epsilon = 0.05
	}
	if e.Agreement.StrongDisagreement == 0 {
		e.Agreement.StrongDisagreement = 0.8
	}
}

// Validate checks structural consistency. A validation failure is a
// configuration fault and surfaces to the caller before any tier runs.
func (c *Config) Validate() error {
	e := &c.Engine
	if e.GlobalTimeoutMs <= 0 {
		return fmt.Errorf("engine.global_timeout_ms must be positive")
	}
	for _, tier := range evidence.AllTiers {
		ms, ok := e.TierTimeoutsMs[string(tier)]
		if !ok || ms <= 0 {
			return fmt.Errorf("engine.tier_timeouts_ms.%s must be positive", tier)
		}
		if ms >= e.GlobalTimeoutMs {
			return fmt.Errorf("engine.tier_timeouts_ms.%s (%dms) must be below engine.global_timeout_ms (%dms)", tier, ms, e.GlobalTimeoutMs)
		}
		w, ok := e.TrustWeights[string(tier)]
		if !ok || w <= 0 || w > 1 {
			return fmt.Errorf("engine.trust_weights.%s must be in (0,1]", tier)
		}
	}
	t := e.Thresholds
	for name, v := range map[string]float64{
		"high":           t.High,
		"low":            t.Low,
		"ambiguous_low":  t.AmbiguousLow,
		"ambiguous_high": t.AmbiguousHigh,
	} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("engine.thresholds.%s must be in (0,1)", name)
		}
	}
	if t.Low >= t.High {
		return fmt.Errorf("engine.thresholds.low must be below engine.thresholds.high")
	}
	if t.Low > t.AmbiguousLow {
		return fmt.Errorf("engine.thresholds.low must not exceed engine.thresholds.ambiguous_low")
	}
	if t.AmbiguousLow >= t.AmbiguousHigh {
		return fmt.Errorf("engine.thresholds.ambiguous_low must be below engine.thresholds.ambiguous_high")
	}
	if t.AmbiguousHigh >= t.High {
		return fmt.Errorf("engine.thresholds.ambiguous_high must be below engine.thresholds.high")
	}
	if e.Agreement.Bonus < 1 {
		return fmt.Errorf("engine.agreement.bonus must be >= 1")
	}
	if e.Agreement.Epsilon < 0 || e.Agreement.Epsilon >= 1 {
		return fmt.Errorf("engine.agreement.epsilon must be in [0,1)")
	}
	if e.MaxConcurrentTiers <= 0 {
		return fmt.Errorf("engine.max_concurrent_tiers must be positive")
	}
	switch c.Cache.Backend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("cache.backend %q is not supported (memory, redis)", c.Cache.Backend)
	}
	if c.Cache.Enabled && c.Cache.Backend == "redis" && c.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when cache.backend is redis")
	}
	return nil
}
