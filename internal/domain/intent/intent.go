// Package intent classifies free-text instructions into executable intents.
package intent

import "strings"

// Intent identifies which instruction handler a task routes to.
type Intent string

const (
	FileCreate    Intent = "file_create"
	FileDelete    Intent = "file_delete"
	Analyze       Intent = "analyze"
	Document      Intent = "document"
	WorkspaceTask Intent = "workspace_task"
	Generic       Intent = "generic"
)

// Classifier maps an instruction to an Intent. Implementations must be
// deterministic; the executor calls Classify once per task.
type Classifier interface {
	Classify(instruction string) Intent
}

// KeywordClassifier is the default Classifier. It checks lower-cased
// substring keywords in a fixed priority order, so an instruction that
// mentions both creation and analysis routes to creation.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the default keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(instruction string) Intent {
	s := strings.ToLower(instruction)

	switch {
	case containsAny(s, "create", "write") && containsAny(s, ".txt", "file"):
		return FileCreate
	case containsAny(s, "delete", "remove", "clean") && containsAny(s, "file", "files", "workspace"):
		return FileDelete
	case containsAny(s, "analyze", "review", "examine"):
		return Analyze
	case containsAny(s, "document", "readme", "docs"):
		return Document
	case containsAny(s, "workspace", "project", "structure"):
		return WorkspaceTask
	default:
		return Generic
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
