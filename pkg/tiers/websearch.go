package tiers

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

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

const defaultMaxSearchResults = 10

// WebSearchProvider wraps a JSON web-search API. Besides scoring how
// often the candidate label appears in the organic results, it collects
// image URLs that unblock the image-dependent tiers.
type WebSearchProvider struct {
	endpoint   string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewWebSearchProvider builds the web-search tier. The API key is read
// from the environment variable named in the config.
func NewWebSearchProvider(cfg config.WebSearchConfig, httpClient *http.Client) *WebSearchProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxSearchResults
	}
	return &WebSearchProvider{
		endpoint:   cfg.Endpoint,
		apiKey:     os.Getenv(cfg.APIKeyEnv),
		maxResults: maxResults,
		httpClient: httpClient,
	}
}

func (p *WebSearchProvider) Tier() evidence.TierID { return evidence.TierWebSearch }

type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
	Images []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"images"`
}

// Evaluate searches for the response text together with the candidate
// label. Confidence is the fraction of organic results whose title or
// snippet mentions the candidate.
func (p *WebSearchProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		query := strings.TrimSpace(req.QueryText() + " " + req.Label)

		var parsed searchResponse
		err := retryOnce(ctx, p.Tier(), func() error {
			return p.search(ctx, query, &parsed)
		})
		if err != nil {
			return evidence.TierResult{}, err
		}

		images := make([]string, 0, len(parsed.Images))
		for _, img := range parsed.Images {
			if img.ImageURL != "" {
				images = append(images, img.ImageURL)
			}
		}

		if len(parsed.Organic) == 0 {
			return evidence.TierResult{
				Status: evidence.StatusSucceeded,
				Images: images,
			}, nil
		}

		needle := evidence.NormalizeLabel(req.Label)
		hits := 0
		matches := make([]evidence.Match, 0, len(parsed.Organic))
		for _, result := range parsed.Organic {
			text := evidence.NormalizeLabel(result.Title + " " + result.Snippet)
			score := 0.0
			if needle != "" && strings.Contains(text, needle) {
				hits++
				score = 1.0
			}
			matches = append(matches, evidence.Match{
				Label:  result.Title,
				Score:  score,
				Source: result.Link,
			})
		}

		confidence := float64(hits) / float64(len(parsed.Organic))
		result := evidence.TierResult{
			Status:     evidence.StatusSucceeded,
			Confidence: evidence.Float64Ptr(confidence),
			Matches:    matches,
			Images:     images,
		}
		if hits > 0 {
			result.Label = req.Label
			result.InAllowedSet = evidence.InAllowedSet(req.Label, req.Category.AllowedLabels)
		}
		return result, nil
	})
}

func (p *WebSearchProvider) search(ctx context.Context, query string, out *searchResponse) error {
	body, err := json.Marshal(searchRequest{Query: query, Num: p.maxResults})
	if err != nil {
		return fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("X-API-KEY", p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &evidence.TierAPIError{
			Tier:       p.Tier(),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(responseBody)),
		}
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return &evidence.TierParseError{Tier: p.Tier(), Err: err}
	}
	return nil
}
