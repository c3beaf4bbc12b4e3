package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// imageExecutor renders a prompt to an image. With no configured
// prompt, the first free-text predecessor is used, trimmed to the
// provider prompt limit.
type imageExecutor struct {
	generator ImageGenerator
}

const imagePromptLimit = 500

func (e *imageExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.generator == nil {
		return result.Errorf("Image generator not configured")
	}
	prompt := strings.TrimSpace(req.Node.String("prompt"))
	if prompt == "" {
		if text, ok := FirstAIText(req.Inputs); ok {
			prompt = result.Truncate(strings.TrimSpace(text), imagePromptLimit)
		}
	}
	if prompt == "" {
		return result.Errorf("Image prompt is required")
	}

	provider := strings.ToLower(req.Node.StringOr("provider", "openai"))
	var key string
	switch provider {
	case "openai":
		if key = req.Creds.OpenAI(ctx); key == "" {
			return result.Errorf("OpenAI API key not configured")
		}
	case "stability":
		if key = req.Creds.Stability(ctx); key == "" {
			return result.Errorf("Stability API key not configured")
		}
	default:
		return result.Errorf(fmt.Sprintf("Unsupported image provider '%s'. Use 'openai' or 'stability'", provider))
	}

	path, err := e.generator.Generate(ctx, ImageRequest{
		Provider: provider,
		APIKey:   key,
		Prompt:   prompt,
		Size:     req.Node.StringOr("size", "1024x1024"),
		Quality:  req.Node.StringOr("quality", "standard"),
	})
	if err != nil {
		return result.Errorf(fmt.Sprintf("Image generation failed: %v", err))
	}
	return result.Image(path)
}
