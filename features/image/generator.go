// Package image renders prompts to PNG files via OpenAI DALL-E or the
// Stability REST API.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Generator implements nodes.ImageGenerator.
type Generator struct {
	dir          string
	stabilityURL string
	client       *http.Client
}

// Options configures New.
type Options struct {
	// Dir is the output directory. Defaults to generated_images.
	Dir string
	// StabilityURL overrides the Stability endpoint, mainly for tests.
	StabilityURL string
	// HTTP is the client used for Stability calls.
	HTTP *http.Client
}

const defaultStabilityURL = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"

// New builds a generator and ensures the output directory exists.
func New(opts Options) (*Generator, error) {
	g := &Generator{
		dir:          opts.Dir,
		stabilityURL: opts.StabilityURL,
		client:       opts.HTTP,
	}
	if g.dir == "" {
		g.dir = "generated_images"
	}
	if g.stabilityURL == "" {
		g.stabilityURL = defaultStabilityURL
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return g, nil
}

// Generate implements nodes.ImageGenerator.
func (g *Generator) Generate(ctx context.Context, req nodes.ImageRequest) (string, error) {
	switch req.Provider {
	case "openai":
		return g.generateOpenAI(ctx, req)
	case "stability":
		return g.generateStability(ctx, req)
	default:
		return "", fmt.Errorf("unknown provider %q", req.Provider)
	}
}

func (g *Generator) generateOpenAI(ctx context.Context, req nodes.ImageRequest) (string, error) {
	client := openai.NewClient(req.APIKey)
	resp, err := client.CreateImage(ctx, openai.ImageRequest{
		Model:          openai.CreateImageModelDallE3,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("dall-e request: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", errors.New("empty image response")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}
	return g.write("dalle", raw)
}

func (g *Generator) generateStability(ctx context.Context, req nodes.ImageRequest) (string, error) {
	width, height := parseSize(req.Size)
	payload, _ := json.Marshal(map[string]any{
		"text_prompts": []map[string]any{{"text": req.Prompt}},
		"width":        width,
		"height":       height,
		"samples":      1,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.stabilityURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("stability request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("stability API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read stability response: %w", err)
	}
	return g.write("stability", raw)
}

// write stores the PNG under a provider-prefixed random name.
func (g *Generator) write(prefix string, raw []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.png", prefix, uuid.NewString()[:8])
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// parseSize splits "1024x1024" into dimensions, defaulting to 1024.
func parseSize(size string) (int, int) {
	parts := strings.SplitN(strings.ToLower(size), "x", 2)
	if len(parts) != 2 {
		return 1024, 1024
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 1024, 1024
	}
	return w, h
}
