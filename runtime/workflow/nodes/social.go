package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// socialExecutor publishes to a social platform. AI free text fills an
// empty content field, trimmed to the platform limit; a generated image
// from a predecessor is attached when the platform supports it.
type socialExecutor struct {
	poster SocialPoster
}

// Platform content limits.
var platformLimits = map[string]int{
	"twitter":   280,
	"linkedin":  3000,
	"instagram": 2200,
}

func (e *socialExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.poster == nil {
		return result.Errorf("Social media adapter not configured")
	}
	platform := strings.ToLower(req.Node.StringOr("platform", "twitter"))

	content := req.Node.String("content")
	if content == "" {
		if text, ok := FirstAIText(req.Inputs); ok {
			content = text
		}
	}
	if strings.TrimSpace(content) == "" {
		return result.Errorf("Content is required for social media post")
	}
	if limit, ok := platformLimits[platform]; ok {
		content = result.Truncate(content, limit)
	}

	imagePath := req.Node.String("image_path")
	if imagePath == "" {
		if images := Images(req.Inputs); len(images) > 0 {
			imagePath = images[0]
		}
	}

	post := SocialPost{
		Platform:  platform,
		Content:   content,
		ImagePath: imagePath,
	}
	switch platform {
	case "twitter":
		post.Twitter = req.Creds.Twitter(ctx)
		if post.Twitter.APIKey == "" || post.Twitter.AccessToken == "" {
			return result.Errorf("Twitter credentials not configured")
		}
	case "linkedin":
		if post.LinkedIn = req.Creds.LinkedIn(ctx); post.LinkedIn == "" {
			return result.Errorf("LinkedIn credentials not configured")
		}
	case "instagram":
		if post.Instagram = req.Creds.Instagram(ctx); post.Instagram == "" {
			return result.Errorf("Instagram credentials not configured")
		}
	case "webhook":
		if post.WebhookURL = req.Node.String("webhook_url"); post.WebhookURL == "" {
			post.WebhookURL = req.Creds.Discord(ctx)
		}
		if post.WebhookURL == "" {
			return result.Errorf("Webhook URL is required for webhook platform")
		}
	default:
		return result.Errorf(fmt.Sprintf("Unsupported platform '%s'", platform))
	}

	detail, err := e.poster.Post(ctx, post)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Failed to post to %s: %v", platform, err))
	}
	msg := fmt.Sprintf("Posted to %s successfully", platform)
	if detail != "" {
		msg += ": " + detail
	}
	return result.Notify(msg)
}
