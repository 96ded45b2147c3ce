package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/genai"

	"github.com/greglas75/coding-ui-sub005/pkg/api"
	"github.com/greglas75/coding-ui-sub005/pkg/cache"
	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
	"github.com/greglas75/coding-ui-sub005/pkg/services"
	"github.com/greglas75/coding-ui-sub005/pkg/tiers"
	"github.com/greglas75/coding-ui-sub005/pkg/vectordb"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to the configuration file")
		apiPort     = flag.Int("api-port", 8080, "Port to listen on for the validation API")
		metricsPort = flag.Int("metrics-port", 9190, "Port for Prometheus metrics")
	)
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if _, err := observability.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		observability.Fatalf("Config file not found: %s", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		observability.Fatalf("Failed to load config: %v", err)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf(":%d", *metricsPort)
		observability.Infof("Starting metrics server on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			observability.Errorf("Metrics server error: %v", err)
		}
	}()

	providers := buildProviders(cfg)
	if len(providers) == 0 {
		observability.Fatalf("No evidence providers could be constructed, check provider configuration")
	}

	verdictCache, err := cache.New(cfg.Cache)
	if err != nil {
		observability.Fatalf("Failed to initialize verdict cache: %v", err)
	}

	svc, err := services.NewValidationService(cfg, providers, verdictCache)
	if err != nil {
		observability.Fatalf("Failed to create validation service: %v", err)
	}

	observability.Infof("Starting label validation engine with %d providers, global timeout %v",
		len(providers), cfg.Engine.GlobalTimeout())

	server := api.NewServer(svc)
	if err := server.Start(*apiPort); err != nil {
		observability.Fatalf("Validation API server error: %v", err)
	}
}

// buildProviders constructs every tier whose client configuration is
// usable. A missing client drops that tier; the engine runs with the
// evidence sources it has.
func buildProviders(cfg *config.Config) []tiers.Provider {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	var providers []tiers.Provider

	if cfg.Providers.Vector.Endpoint != "" {
		embeddingCfg := cfg.Providers.Vector.Embedding
		embedding := vectordb.NewOpenAIEmbeddingService(vectordb.NewOpenAIEmbeddingServiceOptions{
			Endpoint: embeddingCfg.Endpoint,
			APIKey:   os.Getenv(embeddingCfg.APIKeyEnv),
			Model:    embeddingCfg.Model,
		})
		backend, err := vectordb.NewVectorDBBackend(vectordb.VectorDBConfig{
			Type:             vectordb.VectorDBBackendType(cfg.Providers.Vector.Backend),
			Endpoint:         cfg.Providers.Vector.Endpoint,
			Collection:       cfg.Providers.Vector.Collection,
			EmbeddingService: embedding,
		})
		if err != nil {
			observability.Warnf("Vector tier disabled: %v", err)
		} else {
			providers = append(providers, tiers.NewVectorProvider(backend, cfg.Providers.Vector))
		}
	} else {
		observability.Warnf("Vector tier disabled: no endpoint configured")
	}

	if cfg.Providers.WebSearch.Endpoint != "" {
		providers = append(providers, tiers.NewWebSearchProvider(cfg.Providers.WebSearch, httpClient))
	} else {
		observability.Warnf("Web search tier disabled: no endpoint configured")
	}

	openaiOpts := []option.RequestOption{}
	if cfg.Providers.AISummary.Endpoint != "" {
		openaiOpts = append(openaiOpts, option.WithBaseURL(cfg.Providers.AISummary.Endpoint))
	}
	if key := os.Getenv(cfg.Providers.AISummary.APIKeyEnv); key != "" {
		openaiOpts = append(openaiOpts, option.WithAPIKey(key))
	}
	providers = append(providers, tiers.NewAISummaryProvider(openai.NewClient(openaiOpts...), cfg.Providers.AISummary))

	if key := os.Getenv(cfg.Providers.Vision.APIKeyEnv); key != "" {
		genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: key})
		if err != nil {
			observability.Warnf("Vision tier disabled: %v", err)
		} else {
			providers = append(providers, tiers.NewVisionProvider(genaiClient, cfg.Providers.Vision, httpClient))
		}
	} else {
		observability.Warnf("Vision tier disabled: no API key in environment")
	}

	if cfg.Providers.KnowledgeGraph.Endpoint != "" {
		providers = append(providers, tiers.NewKnowledgeGraphProvider(cfg.Providers.KnowledgeGraph, httpClient))
	} else {
		observability.Warnf("Knowledge graph tier disabled: no endpoint configured")
	}

	embedding := vectordb.NewOpenAIEmbeddingService(vectordb.NewOpenAIEmbeddingServiceOptions{
		Endpoint: cfg.Providers.Embedding.Endpoint,
		APIKey:   os.Getenv(cfg.Providers.Embedding.APIKeyEnv),
		Model:    cfg.Providers.Embedding.Model,
	})
	providers = append(providers, tiers.NewEmbeddingProvider(embedding))

	return providers
}
