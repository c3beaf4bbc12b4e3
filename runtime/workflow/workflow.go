// Package workflow defines the graph data model shared by the execution
// engine, the webhook router and the scheduler: a workflow is an unordered
// set of nodes joined by directed edges, and must form a DAG.
package workflow

import "encoding/json"

type (
	// Kind discriminates node executors. The set of recognised kinds is
	// closed; unknown kinds execute to a "not implemented" result rather
	// than failing the run.
	Kind string

	// Node is a unit of work. ID must be unique within its workflow.
	// Config carries kind-specific options and is interpreted solely by
	// the executor for Kind. Position is client layout metadata and is
	// opaque to the engine.
	Node struct {
		ID       string                 `json:"id"`
		Kind     Kind                   `json:"type"`
		Config   map[string]any         `json:"data,omitempty"`
		Position map[string]json.Number `json:"position,omitempty"`
	}

	// Edge is a dependency from Source to Target: the target node may
	// absorb the source node's result. ID is optional and generated when
	// absent.
	Edge struct {
		ID     string `json:"id,omitempty"`
		Source string `json:"source"`
		Target string `json:"target"`
	}

	// Workflow is the unit submitted for execution.
	Workflow struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}
)

// Node kinds recognised by the executor registry.
const (
	KindGPT             Kind = "gpt"
	KindLlama           Kind = "llama"
	KindGemini          Kind = "gemini"
	KindClaude          Kind = "claude"
	KindMistral         Kind = "mistral"
	KindEmail           Kind = "email"
	KindWebhook         Kind = "webhook"
	KindSMS             Kind = "sms"
	KindWhatsApp        Kind = "whatsapp"
	KindTwilio          Kind = "twilio"
	KindDiscord         Kind = "discord"
	KindGoogleSheets    Kind = "google_sheets"
	KindSchedule        Kind = "schedule"
	KindFileUpload      Kind = "file_upload"
	KindImageGeneration Kind = "image_generation"
	KindDocumentParser  Kind = "document_parser"
	KindReportGenerator Kind = "report_generator"
	KindSocialMedia     Kind = "social_media"
)

// IsModel reports whether the kind routes to the LLM executor.
func (k Kind) IsModel() bool {
	switch k {
	case KindGPT, KindLlama, KindGemini, KindClaude, KindMistral:
		return true
	}
	return false
}

// String returns the config value for key when it is a string, else "".
func (n Node) String(key string) string {
	s, _ := n.Config[key].(string)
	return s
}

// StringOr returns the config value for key when it is a non-empty
// string, else def.
func (n Node) StringOr(key, def string) string {
	if s := n.String(key); s != "" {
		return s
	}
	return def
}

// Clone returns a deep copy of the workflow. Config maps are copied one
// level deep, which is enough to keep webhook payload injection on a
// stored workflow from leaking into the caller's copy.
func (w Workflow) Clone() Workflow {
	c := Workflow{
		Nodes: make([]Node, len(w.Nodes)),
		Edges: make([]Edge, len(w.Edges)),
	}
	copy(c.Edges, w.Edges)
	for i, n := range w.Nodes {
		cn := n
		if n.Config != nil {
			cn.Config = make(map[string]any, len(n.Config))
			for k, v := range n.Config {
				cn.Config[k] = v
			}
		}
		c.Nodes[i] = cn
	}
	return c
}

// NodeByID returns the node with the given id.
func (w Workflow) NodeByID(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
