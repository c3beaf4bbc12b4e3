// Package result models node outcomes as a tagged variant and handles
// the string protocol used on the wire. Executors produce Results;
// the engine serialises them to strings at its boundary, and the input
// adapter classifies predecessor strings back into Results.
package result

import (
	"strings"
)

// Kind identifies the variant carried by a Result.
type Kind int

const (
	// AIText is free-form model output.
	AIText Kind = iota
	// DocumentParsed carries the path to a parsed-document JSON file.
	DocumentParsed
	// ReportGenerated carries the path to a generated PDF or DOCX.
	ReportGenerated
	// ImageGenerated carries the path to a generated PNG.
	ImageGenerated
	// FileUploaded carries a drive URL or local path.
	FileUploaded
	// Notification is a small status sentinel such as an email or SMS
	// confirmation, a webhook no-op, or a schedule registration.
	Notification
	// Failure is an executor error surfaced as a result string.
	Failure
)

// Result is the internal form of a node outcome. Exactly one of Path,
// URL or Text is meaningful depending on Kind.
type Result struct {
	Kind Kind
	// Path is the on-disk artifact for DocumentParsed, ReportGenerated
	// and ImageGenerated.
	Path string
	// URL is the upload destination for FileUploaded. It may also be a
	// local path when the drive adapter stores locally.
	URL string
	// Text holds AIText, Notification and Failure payloads. For Failure
	// the text already starts with "Error:" or "Failed:".
	Text string
}

// Wire tags. Matching is exact and case-sensitive at the start of a
// result string; the skip rules in Absorbable lower-case instead. The
// asymmetry is deliberate and mirrors the wire protocol.
const (
	TagDocumentParsed  = "Document parsed: "
	TagReportGenerated = "Report generated: "
	TagImageGenerated  = "Image generated: "
	TagFileUploaded    = "File uploaded: "
	TagScheduleSet     = "Schedule set: "
	TagWebhookNoURL    = "Webhook triggered (no URL provided)"
)

// Errorf builds a Failure result with an "Error: " prefix.
func Errorf(text string) Result { return Result{Kind: Failure, Text: "Error: " + text} }

// Textf builds an AIText result.
func Textf(text string) Result { return Result{Kind: AIText, Text: text} }

// Notify builds a Notification result.
func Notify(text string) Result { return Result{Kind: Notification, Text: text} }

// Document builds a DocumentParsed result.
func Document(path string) Result { return Result{Kind: DocumentParsed, Path: path} }

// Report builds a ReportGenerated result.
func Report(path string) Result { return Result{Kind: ReportGenerated, Path: path} }

// Image builds an ImageGenerated result.
func Image(path string) Result { return Result{Kind: ImageGenerated, Path: path} }

// Upload builds a FileUploaded result.
func Upload(ref string) Result { return Result{Kind: FileUploaded, URL: ref} }

// String serialises the result to its wire form.
func (r Result) String() string {
	switch r.Kind {
	case DocumentParsed:
		return TagDocumentParsed + r.Path
	case ReportGenerated:
		return TagReportGenerated + r.Path
	case ImageGenerated:
		return TagImageGenerated + r.Path
	case FileUploaded:
		return TagFileUploaded + r.URL
	default:
		return r.Text
	}
}

// IsError reports whether the result is a failure sentinel.
func (r Result) IsError() bool { return r.Kind == Failure }

// Parse classifies a wire string back into a Result. Tag prefixes win;
// then failure sentinels; then the free-text rule: more than 10
// non-whitespace characters that pass the skip rules is AI text, and
// everything else is a notification.
func Parse(s string) Result {
	switch {
	case strings.HasPrefix(s, TagDocumentParsed):
		return Document(strings.TrimPrefix(s, TagDocumentParsed))
	case strings.HasPrefix(s, TagReportGenerated):
		return Report(strings.TrimPrefix(s, TagReportGenerated))
	case strings.HasPrefix(s, TagImageGenerated):
		return Image(strings.TrimPrefix(s, TagImageGenerated))
	case strings.HasPrefix(s, TagFileUploaded):
		return Upload(strings.TrimPrefix(s, TagFileUploaded))
	case strings.HasPrefix(s, TagScheduleSet):
		return Notify(s)
	case strings.HasPrefix(s, "Error:") || strings.HasPrefix(s, "Failed:"):
		return Result{Kind: Failure, Text: s}
	case Absorbable(s):
		return Textf(s)
	default:
		return Notify(s)
	}
}

// skipWords mark strings that look like status output rather than model
// text. Matching is done on the lower-cased string.
var skipWords = []string{
	"failed",
	"error",
	"not implemented",
	"sent successfully",
	"uploaded",
	"generated:",
	"deleted",
	"saved",
	"webhook",
	"document parsed:",
}

// Absorbable reports whether s should be treated as AI-generated free
// text by absorbing executors: longer than 10 non-whitespace characters
// and free of every skip word.
func Absorbable(s string) bool {
	if nonSpaceLen(s) <= 10 {
		return false
	}
	low := strings.ToLower(s)
	for _, w := range skipWords {
		if strings.Contains(low, w) {
			return false
		}
	}
	return true
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			n++
		}
	}
	return n
}

// Truncate caps s at limit runes, replacing the tail with an ellipsis
// when it overflows.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
