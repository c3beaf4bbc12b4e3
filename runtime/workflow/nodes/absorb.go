package nodes

import (
	"github.com/autoflow/autoflow/runtime/workflow/document"
	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// The input adapter: helpers that classify predecessor results so each
// executor absorbs upstream output the same way. Executors never sniff
// result strings themselves.

type (
	// AbsorbedDoc is a parsed-document predecessor with its JSON loaded
	// from disk. Docs whose JSON cannot be read are skipped.
	AbsorbedDoc struct {
		NodeID string
		Path   string
		Doc    document.Document
	}

	// SourcedText is AI free text attributed to its producing node.
	SourcedText struct {
		NodeID string
		Text   string
	}
)

// Documents loads every parsed-document predecessor in input order.
func Documents(inputs []Input) []AbsorbedDoc {
	var docs []AbsorbedDoc
	for _, in := range inputs {
		if in.Result.Kind != result.DocumentParsed {
			continue
		}
		d, err := document.Load(in.Result.Path)
		if err != nil {
			continue
		}
		docs = append(docs, AbsorbedDoc{NodeID: in.NodeID, Path: in.Result.Path, Doc: d})
	}
	return docs
}

// AITexts returns every free-text predecessor in input order.
func AITexts(inputs []Input) []SourcedText {
	var texts []SourcedText
	for _, in := range inputs {
		if in.Result.Kind != result.AIText {
			continue
		}
		texts = append(texts, SourcedText{NodeID: in.NodeID, Text: in.Result.Text})
	}
	return texts
}

// FirstAIText returns the first free-text predecessor, if any. Failure
// and status results never qualify, which keeps upstream errors from
// leaking into prompts.
func FirstAIText(inputs []Input) (string, bool) {
	for _, in := range inputs {
		if in.Result.Kind == result.AIText {
			return in.Result.Text, true
		}
	}
	return "", false
}

// Images returns the paths of generated-image predecessors.
func Images(inputs []Input) []string {
	return paths(inputs, result.ImageGenerated)
}

// Reports returns the paths of generated-report predecessors.
func Reports(inputs []Input) []string {
	return paths(inputs, result.ReportGenerated)
}

// Uploads returns the URLs of uploaded-file predecessors.
func Uploads(inputs []Input) []string {
	var urls []string
	for _, in := range inputs {
		if in.Result.Kind == result.FileUploaded {
			urls = append(urls, in.Result.URL)
		}
	}
	return urls
}

// Notifications returns status-sentinel predecessors in input order.
func Notifications(inputs []Input) []SourcedText {
	var out []SourcedText
	for _, in := range inputs {
		if in.Result.Kind != result.Notification {
			continue
		}
		out = append(out, SourcedText{NodeID: in.NodeID, Text: in.Result.Text})
	}
	return out
}

// FirstArtifact returns the first predecessor artifact path among the
// given kinds, scanning inputs in order and kinds in the given
// priority.
func FirstArtifact(inputs []Input, kinds ...result.Kind) (string, bool) {
	for _, in := range inputs {
		for _, k := range kinds {
			if in.Result.Kind != k {
				continue
			}
			if k == result.FileUploaded {
				return in.Result.URL, true
			}
			return in.Result.Path, true
		}
	}
	return "", false
}

func paths(inputs []Input, kind result.Kind) []string {
	var out []string
	for _, in := range inputs {
		if in.Result.Kind == kind {
			out = append(out, in.Result.Path)
		}
	}
	return out
}
