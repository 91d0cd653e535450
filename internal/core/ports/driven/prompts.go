package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the answer pipeline template. It expects the
	// {{context}}, {{history}}, {{question}} and {{format}} placeholders.
	PromptAnswer = "answer"

	// PromptAnswerFormat is the output format directive substituted for {{format}}.
	PromptAnswerFormat = "answer_format"
)
