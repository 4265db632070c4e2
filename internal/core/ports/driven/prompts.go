package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a
	// sensible default or an error, depending on whether the prompt
	// is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswer is the grounded answer-synthesis prompt.
	// The template contains literal {context} and {question} slots that
	// are substituted at query time.
	PromptAnswer = "answer"
)

// PromptStoreAware is an optional interface for services that can use
// custom prompts. Services implementing it fall back to hardcoded
// defaults when no store is injected.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}
