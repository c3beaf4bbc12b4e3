// Package nodes implements the per-kind node executors and the input
// adapter that absorbs predecessor results into node configuration.
// Executors are pure with respect to the run: they read the node
// config, the ordered predecessor results and the credential broker,
// and produce a single result. External services are reached through
// the narrow adapter interfaces declared here and implemented under
// features/.
package nodes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/creds"
	"github.com/autoflow/autoflow/runtime/workflow/result"
	"github.com/autoflow/autoflow/runtime/workflow/telemetry"
)

type (
	// Executor runs one node kind. Implementations never return errors
	// out of the run; failures become Failure results.
	Executor interface {
		Execute(ctx context.Context, req Request) result.Result
	}

	// Request carries everything an executor may consult.
	Request struct {
		// Node is the node under execution with any injected config
		// (webhook payloads) already applied.
		Node workflow.Node
		// Inputs are the immediate predecessors' results in a stable
		// order for the run.
		Inputs []Input
		// Creds resolves service credentials for the run's user.
		Creds *creds.Broker
	}

	// Input pairs a predecessor node id with its classified result.
	Input struct {
		NodeID string
		Result result.Result
	}

	// Registry dispatches node kinds to executors.
	Registry struct {
		executors map[workflow.Kind]Executor
		log       telemetry.Logger
	}

	// Deps wires the external adapters consumed by the built-in
	// executors. Nil entries make the corresponding executor report a
	// configuration failure rather than panic.
	Deps struct {
		LLM     LLM
		Mail    MailSender
		Courier Courier
		Discord DiscordPoster
		Sheets  SheetsWriter
		Drive   Drive
		Images  ImageGenerator
		Parser  DocumentParser
		Reports ReportWriter
		Social  SocialPoster
		// HTTP is used by the webhook executor for outbound requests.
		// Timeouts are applied per call from node config.
		HTTP *http.Client
		Log  telemetry.Logger
	}

	// LLM completes a prompt against the model router.
	LLM interface {
		Complete(ctx context.Context, req CompletionRequest) (string, error)
	}

	// CompletionRequest is one chat completion call.
	CompletionRequest struct {
		APIKey string
		Model  string
		Prompt string
	}

	// MailSender delivers one message over SMTP.
	MailSender interface {
		Send(ctx context.Context, msg MailMessage) error
	}

	// MailMessage is a fully assembled outbound email. Attachments are
	// local file paths.
	MailMessage struct {
		To          []string
		CC          []string
		BCC         []string
		Subject     string
		Body        string
		Attachments []string
	}

	// Courier sends SMS and WhatsApp messages.
	Courier interface {
		Send(ctx context.Context, msg CourierMessage) error
	}

	// CourierMessage is one Twilio delivery. To is E.164, already
	// carrying the whatsapp: prefix in WhatsApp mode.
	CourierMessage struct {
		Creds    creds.Twilio
		To       string
		Body     string
		WhatsApp bool
	}

	// DiscordPoster executes a Discord webhook.
	DiscordPoster interface {
		Post(ctx context.Context, webhookURL string, msg DiscordMessage) error
	}

	// DiscordMessage mirrors the webhook execute payload.
	DiscordMessage struct {
		Content  string         `json:"content,omitempty"`
		Username string         `json:"username,omitempty"`
		Embeds   []DiscordEmbed `json:"embeds,omitempty"`
	}

	// DiscordEmbed is one embed object.
	DiscordEmbed struct {
		Title       string        `json:"title,omitempty"`
		Description string        `json:"description,omitempty"`
		Color       int           `json:"color,omitempty"`
		Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	}

	// DiscordEmbedFooter is the embed footer line.
	DiscordEmbedFooter struct {
		Text string `json:"text"`
	}

	// SheetsWriter appends rows to a spreadsheet and reports the number
	// of cells updated.
	SheetsWriter interface {
		Append(ctx context.Context, spreadsheetID, readRange string, values [][]any) (int, error)
	}

	// Drive uploads and downloads files on the configured drive.
	Drive interface {
		// Upload stores the local file and returns a shareable URL.
		Upload(ctx context.Context, localPath, name, mimeType string) (string, error)
		// Download fetches a drive file id into the downloads area and
		// returns the local path.
		Download(ctx context.Context, fileID string) (string, error)
	}

	// ImageGenerator renders a prompt to a PNG on disk.
	ImageGenerator interface {
		Generate(ctx context.Context, req ImageRequest) (string, error)
	}

	// ImageRequest selects the provider and rendering options.
	ImageRequest struct {
		Provider string // "openai" or "stability"
		APIKey   string
		Prompt   string
		Size     string
		Quality  string
	}

	// DocumentParser converts an input file into the parsed-document
	// JSON and returns the JSON path.
	DocumentParser interface {
		Parse(ctx context.Context, path string) (string, error)
	}

	// ReportWriter renders a report and returns its path.
	ReportWriter interface {
		Generate(ctx context.Context, req ReportRequest) (string, error)
	}

	// ReportRequest is one report rendering.
	ReportRequest struct {
		Title   string
		Content string
		Format  string // "pdf" or "docx"
	}

	// SocialPoster publishes to a social platform and returns the
	// platform's confirmation text.
	SocialPoster interface {
		Post(ctx context.Context, post SocialPost) (string, error)
	}

	// SocialPost is one publication request. Credentials are resolved
	// by the executor before the call.
	SocialPost struct {
		Platform   string
		Content    string
		ImagePath  string
		WebhookURL string
		Twitter    creds.Twitter
		LinkedIn   string
		Instagram  string
	}
)

// Per-call timeouts enforced by executors that touch the network.
const (
	WebhookTimeout = 30 * time.Second
	LLMTimeout     = 60 * time.Second
	SMTPTimeout    = 60 * time.Second
	DiscordTimeout = 10 * time.Second
)

// NewRegistry builds the registry with every built-in executor wired to
// deps. The model kinds share one executor instance.
func NewRegistry(deps Deps) *Registry {
	if deps.Log == nil {
		deps.Log = telemetry.NewNoopLogger()
	}
	if deps.HTTP == nil {
		deps.HTTP = &http.Client{}
	}
	r := &Registry{
		executors: make(map[workflow.Kind]Executor),
		log:       deps.Log,
	}
	model := &modelExecutor{llm: deps.LLM}
	for _, k := range []workflow.Kind{
		workflow.KindGPT, workflow.KindLlama, workflow.KindGemini,
		workflow.KindClaude, workflow.KindMistral,
	} {
		r.Register(k, model)
	}
	courier := &courierExecutor{courier: deps.Courier}
	r.Register(workflow.KindSMS, courier)
	r.Register(workflow.KindWhatsApp, courier)
	r.Register(workflow.KindTwilio, courier)
	r.Register(workflow.KindEmail, &emailExecutor{mail: deps.Mail})
	r.Register(workflow.KindWebhook, &webhookExecutor{client: deps.HTTP})
	r.Register(workflow.KindDiscord, &discordExecutor{poster: deps.Discord})
	r.Register(workflow.KindGoogleSheets, &sheetsExecutor{writer: deps.Sheets})
	r.Register(workflow.KindSchedule, scheduleExecutor{})
	r.Register(workflow.KindFileUpload, &uploadExecutor{drive: deps.Drive})
	r.Register(workflow.KindImageGeneration, &imageExecutor{generator: deps.Images})
	r.Register(workflow.KindDocumentParser, &documentExecutor{parser: deps.Parser, drive: deps.Drive})
	r.Register(workflow.KindReportGenerator, &reportExecutor{writer: deps.Reports})
	r.Register(workflow.KindSocialMedia, &socialExecutor{poster: deps.Social})
	return r
}

// Register binds an executor to a kind, replacing any prior binding.
func (r *Registry) Register(kind workflow.Kind, e Executor) {
	r.executors[kind] = e
}

// Execute dispatches to the executor for the node's kind. Unknown kinds
// produce the "not implemented" notification rather than an error so a
// run with an unrecognised node still completes.
func (r *Registry) Execute(ctx context.Context, req Request) result.Result {
	e, ok := r.executors[req.Node.Kind]
	if !ok {
		r.log.Warn(ctx, "unknown node kind", "node", req.Node.ID, "kind", string(req.Node.Kind))
		return result.Notify(fmt.Sprintf("%s node not implemented", req.Node.Kind))
	}
	return e.Execute(ctx, req)
}
