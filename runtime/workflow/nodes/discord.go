package nodes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// discordExecutor posts to a Discord webhook, rendering predecessor
// results as colored embeds.
type discordExecutor struct {
	poster DiscordPoster
}

// Embed colors per absorbed result kind.
const (
	colorReport       = 3066993
	colorDocument     = 3447003
	colorImage        = 10181046
	colorAI           = 5814783
	colorNotification = 3066993
	colorError        = 15158332
)

const (
	discordContentLimit = 2000
	discordEmbedLimit   = 1500
	discordMaxEmbeds    = 10
	discordFooter       = "Sent via AutoFlow"
)

func (e *discordExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.poster == nil {
		return result.Errorf("Discord adapter not configured")
	}
	url := req.Node.String("webhook_url")
	if url == "" {
		url = req.Creds.Discord(ctx)
	}
	if url == "" {
		return result.Errorf("Discord webhook URL not configured")
	}

	message := req.Node.String("message")
	var embeds []DiscordEmbed
	if message != "" {
		embeds = append(embeds, DiscordEmbed{
			Title:       "AutoFlow Notification",
			Description: result.Truncate(message, discordEmbedLimit),
			Color:       colorAI,
			Footer:      &DiscordEmbedFooter{Text: discordFooter},
		})
	}
	for _, in := range req.Inputs {
		if len(embeds) >= discordMaxEmbeds {
			break
		}
		if embed, ok := inputEmbed(in); ok {
			embeds = append(embeds, embed)
		}
	}
	if len(embeds) == 0 {
		embeds = append(embeds, DiscordEmbed{
			Title:       "AutoFlow Notification",
			Description: "Workflow executed",
			Color:       colorAI,
			Footer:      &DiscordEmbedFooter{Text: discordFooter},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, DiscordTimeout)
	defer cancel()
	err := e.poster.Post(ctx, url, DiscordMessage{
		Content:  result.Truncate(req.Node.String("content"), discordContentLimit),
		Username: req.Node.StringOr("username", "AutoFlow Bot"),
		Embeds:   embeds,
	})
	if err != nil {
		return result.Errorf(fmt.Sprintf("Discord webhook failed: %v", err))
	}
	return result.Notify("Discord message sent successfully")
}

// inputEmbed renders one predecessor result as an embed.
func inputEmbed(in Input) (DiscordEmbed, bool) {
	switch in.Result.Kind {
	case result.ReportGenerated:
		return DiscordEmbed{
			Title:       "Report Generated",
			Description: filepath.Base(in.Result.Path),
			Color:       colorReport,
		}, true
	case result.DocumentParsed:
		return DiscordEmbed{
			Title:       "Document Parsed",
			Description: filepath.Base(in.Result.Path),
			Color:       colorDocument,
		}, true
	case result.ImageGenerated:
		return DiscordEmbed{
			Title:       "Image Generated",
			Description: filepath.Base(in.Result.Path),
			Color:       colorImage,
		}, true
	case result.FileUploaded:
		return DiscordEmbed{
			Title:       "File Uploaded",
			Description: result.Truncate(in.Result.URL, discordEmbedLimit),
			Color:       colorNotification,
		}, true
	case result.AIText:
		return DiscordEmbed{
			Title:       "AI Generated Content",
			Description: result.Truncate(in.Result.Text, discordEmbedLimit),
			Color:       colorAI,
		}, true
	case result.Notification:
		return DiscordEmbed{
			Title:       "Workflow Update",
			Description: result.Truncate(in.Result.Text, discordEmbedLimit),
			Color:       colorNotification,
		}, true
	case result.Failure:
		return DiscordEmbed{
			Title:       "Error",
			Description: result.Truncate(in.Result.Text, discordEmbedLimit),
			Color:       colorError,
		}, true
	}
	return DiscordEmbed{}, false
}
