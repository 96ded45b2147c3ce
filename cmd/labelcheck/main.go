package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/greglas75/coding-ui-sub005/pkg/cli"
	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/vectordb"
)

var (
	serverURL  string
	category   string
	labels     []string
	images     []string
	asJSON     bool
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "labelcheck <label> <response text>",
		Short: "Validate one label against a response through a running validation engine",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runValidate,
	}
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Validation engine base URL")
	rootCmd.Flags().StringVar(&category, "category", "", "Category name")
	rootCmd.Flags().StringSliceVar(&labels, "allowed", nil, "Allowed labels in the category")
	rootCmd.Flags().StringSliceVar(&images, "image", nil, "Known image URLs")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw verdict JSON")

	seedCmd := &cobra.Command{
		Use:   "seed <label> [label...]",
		Short: "Create the vector label collection and insert label embeddings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "Path to the engine configuration file")
	rootCmd.AddCommand(seedCmd)

	if err := rootCmd.Execute(); err != nil {
		cli.Error("%s", err.Error())
		os.Exit(1)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	req := evidence.ValidationRequest{
		Label:        args[0],
		ResponseText: strings.Join(args[1:], " "),
		Category: evidence.CategoryContext{
			Name:          category,
			AllowedLabels: labels,
		},
		ImageURLs: images,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(serverURL+"/api/v1/validate", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calling validation engine: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if asJSON {
		fmt.Println(string(payload))
		return nil
	}

	var v evidence.ValidationVerdict
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("decoding verdict: %w", err)
	}

	cli.RenderVerdict(os.Stdout, &v)
	return nil
}

// runSeed talks to the vector store directly rather than through a
// running engine, so operators can populate the label collection
// before the first validation request.
func runSeed(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	vc := cfg.Providers.Vector
	if vc.Backend != string(vectordb.MilvusVectorDBType) {
		return fmt.Errorf("seeding supports the milvus backend, config uses %q", vc.Backend)
	}
	if vc.Endpoint == "" || vc.Collection == "" {
		return fmt.Errorf("providers.vector.endpoint and providers.vector.collection must be configured")
	}

	embedding := vectordb.NewOpenAIEmbeddingService(vectordb.NewOpenAIEmbeddingServiceOptions{
		Endpoint: vc.Embedding.Endpoint,
		APIKey:   os.Getenv(vc.Embedding.APIKeyEnv),
		Model:    vc.Embedding.Model,
	})
	backend, err := vectordb.NewMilvusVectorDB(vectordb.MilvusVectorDBOptions{
		Endpoint:         vc.Endpoint,
		Collection:       vc.Collection,
		EmbeddingService: embedding,
	})
	if err != nil {
		return fmt.Errorf("connecting to vector store: %w", err)
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	if err := backend.InsertLabels(ctx, args); err != nil {
		return err
	}

	cli.Success("Seeded %d labels into collection %q", len(args), vc.Collection)
	return nil
}
