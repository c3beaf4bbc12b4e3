package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// modelExecutor serves the gpt/llama/gemini/claude/mistral kinds. The
// prompt comes from config, with the node label as fallback; parsed
// documents from predecessors are appended to the prompt before the
// call.
type modelExecutor struct {
	llm LLM
}

const defaultModel = "meta-llama/llama-3-8b-instruct"

func (e *modelExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.llm == nil {
		return result.Errorf("LLM client not configured")
	}
	prompt := req.Node.StringOr("prompt", req.Node.String("label"))
	if strings.TrimSpace(prompt) == "" {
		return result.Errorf("Prompt is required")
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	for _, d := range Documents(req.Inputs) {
		sb.WriteString("\n\nDocument content from ")
		sb.WriteString(d.Doc.Metadata.FileName)
		sb.WriteString(":\n")
		sb.WriteString(d.Doc.Content)
	}

	key := req.Creds.OpenRouter(ctx)
	if key == "" {
		return result.Errorf("OpenRouter API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, LLMTimeout)
	defer cancel()
	text, err := e.llm.Complete(ctx, CompletionRequest{
		APIKey: key,
		Model:  req.Node.StringOr("model", defaultModel),
		Prompt: sb.String(),
	})
	if err != nil {
		return result.Errorf(fmt.Sprintf("LLM request failed: %v", err))
	}
	return result.Textf(text)
}
