package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptRAGSystem is the grounded-answer instruction for a chat turn.
	// The template expects a single %s placeholder for the assembled context.
	PromptRAGSystem = "rag_system"
)

// DefaultRAGSystemPrompt is used when no customised rag_system prompt exists.
const DefaultRAGSystemPrompt = `You are a helpful assistant that answers questions based on the provided documents.

Use the following context to answer the user's question. If the answer is not in the context, say that you don't have enough information to answer.

When referencing information, mention which source it came from (e.g., "According to Source 1...").

Context:
%s

Guidelines:
- Be concise and accurate
- If you're unsure, say so
- Cite your sources when possible
- Stay on topic and answer the question directly`
