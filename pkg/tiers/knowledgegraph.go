package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

const defaultKGLimit = 3

// kgScoreScale squashes the API's unbounded resultScore into [0,1).
// A resultScore of 100 maps to ~0.83.
const kgScoreScale = 20.0

// KnowledgeGraphProvider looks the candidate label up in a structured
// knowledge-graph search API. Obscure labels legitimately return no
// entity at all.
type KnowledgeGraphProvider struct {
	endpoint   string
	apiKey     string
	limit      int
	httpClient *http.Client
}

// NewKnowledgeGraphProvider builds the knowledge-graph tier.
func NewKnowledgeGraphProvider(cfg config.KnowledgeGraphConfig, httpClient *http.Client) *KnowledgeGraphProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultKGLimit
	}
	return &KnowledgeGraphProvider{
		endpoint:   cfg.Endpoint,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		limit:      limit,
		httpClient: httpClient,
	}
}

func (p *KnowledgeGraphProvider) Tier() evidence.TierID { return evidence.TierKnowledgeGraph }

type kgResponse struct {
	ItemListElement []struct {
		Result struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Types       []string `json:"@type"`
		} `json:"result"`
		ResultScore float64 `json:"resultScore"`
	} `json:"itemListElement"`
}

// Evaluate queries the knowledge graph for the candidate label and
// reports the best-scored entity.
func (p *KnowledgeGraphProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		var parsed kgResponse
		err := retryOnce(ctx, p.Tier(), func() error {
			return p.lookup(ctx, req.Label, &parsed)
		})
		if err != nil {
			return evidence.TierResult{}, err
		}

		if len(parsed.ItemListElement) == 0 {
			// No entity is a succeeded lookup with nothing extracted.
			return evidence.TierResult{Status: evidence.StatusSucceeded}, nil
		}

		matches := make([]evidence.Match, 0, len(parsed.ItemListElement))
		for _, item := range parsed.ItemListElement {
			matches = append(matches, evidence.Match{
				Label:  item.Result.Name,
				Score:  normalizeKGScore(item.ResultScore),
				Source: item.Result.Description,
			})
		}

		top := matches[0]
		for _, m := range matches[1:] {
			if m.Score > top.Score {
				top = m
			}
		}

		return evidence.TierResult{
			Status:       evidence.StatusSucceeded,
			Label:        top.Label,
			Confidence:   evidence.Float64Ptr(top.Score),
			Matches:      matches,
			InAllowedSet: evidence.InAllowedSet(top.Label, req.Category.AllowedLabels),
		}, nil
	})
}

func (p *KnowledgeGraphProvider) lookup(ctx context.Context, label string, out *kgResponse) error {
	params := url.Values{}
	params.Set("query", label)
	params.Set("limit", fmt.Sprintf("%d", p.limit))
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create knowledge graph request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read knowledge graph response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &evidence.TierAPIError{
			Tier:       p.Tier(),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &evidence.TierParseError{Tier: p.Tier(), Err: err}
	}
	return nil
}

func normalizeKGScore(score float64) float64 {
	if score <= 0 {
		return 0
	}
	return score / (score + kgScoreScale)
}
