package tiers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
)

const (
	defaultVisionModel  = "gemini-2.0-flash"
	defaultMaxImages    = 4
	maxImageFetchBytes  = 8 << 20
	visionSystemPrompt  = `You identify the brand or entity shown in images, usually from a logo or product shot.
Respond with strict JSON only: {"label": "<brand name>", "confidence": <0..1>}.
Use an empty label when no brand is recognizable.`
)

// VisionProvider classifies brand logos in the request's image URLs
// with a multimodal model. It is skipped when no image URLs are
// available.
type VisionProvider struct {
	client     *genai.Client
	model      string
	maxImages  int
	httpClient *http.Client
}

// NewVisionProvider builds the vision tier around an injected genai
// client.
func NewVisionProvider(client *genai.Client, cfg config.VisionConfig, httpClient *http.Client) *VisionProvider {
	model := cfg.Model
	if model == "" {
		model = defaultVisionModel
	}
	maxImages := cfg.MaxImages
	if maxImages <= 0 {
		maxImages = defaultMaxImages
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &VisionProvider{
		client:     client,
		model:      model,
		maxImages:  maxImages,
		httpClient: httpClient,
	}
}

func (p *VisionProvider) Tier() evidence.TierID { return evidence.TierVision }

type visionAnswer struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Evaluate downloads up to maxImages of the request's images and asks
// the model which brand they show.
func (p *VisionProvider) Evaluate(ctx context.Context, req *evidence.ValidationRequest) evidence.TierResult {
	if len(req.ImageURLs) == 0 {
		return skipped(p.Tier(), "no image URLs available")
	}

	return run(ctx, p.Tier(), func(ctx context.Context) (evidence.TierResult, error) {
		parts := []*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Category context: %q. Which brand do these images show?", req.Category.Name)),
		}

		fetched := 0
		for _, url := range req.ImageURLs {
			if fetched >= p.maxImages {
				break
			}
			data, mimeType, err := p.fetchImage(ctx, url)
			if err != nil {
				// A single broken image URL must not sink the tier.
				observability.Debugf("Vision tier skipping image %s: %v", url, err)
				continue
			}
			parts = append(parts, genai.NewPartFromBytes(data, mimeType))
			fetched++
		}
		if fetched == 0 {
			return evidence.TierResult{}, fmt.Errorf("none of %d image URLs could be fetched", len(req.ImageURLs))
		}

		temperature := float32(0)
		genCfg := &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: visionSystemPrompt}},
			},
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
		}

		var text string
		err := retryOnce(ctx, p.Tier(), func() error {
			resp, err := p.client.Models.GenerateContent(ctx, p.model,
				[]*genai.Content{{Role: "user", Parts: parts}}, genCfg)
			if err != nil {
				return err
			}
			text = resp.Text()
			return nil
		})
		if err != nil {
			return evidence.TierResult{}, err
		}

		var answer visionAnswer
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &answer); err != nil {
			return evidence.TierResult{}, &evidence.TierParseError{Tier: p.Tier(), Err: err}
		}

		result := evidence.TierResult{
			Status:     evidence.StatusSucceeded,
			Label:      answer.Label,
			Confidence: evidence.Float64Ptr(clamp01(answer.Confidence)),
		}
		if answer.Label != "" {
			result.Matches = []evidence.Match{{
				Label:  answer.Label,
				Score:  clamp01(answer.Confidence),
				Source: "logo_detection",
			}}
			result.InAllowedSet = evidence.InAllowedSet(answer.Label, req.Category.AllowedLabels)
		}
		return result, nil
	})
}

func (p *VisionProvider) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("image fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchBytes))
	if err != nil {
		return nil, "", err
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("unsupported content type %s", mimeType)
	}
	return data, mimeType, nil
}
