// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - TextExtractor: Turns raw uploaded bytes into plain text
//   - DocumentStore: Document and chunk persistence
//   - ChatStore: Chat session and message persistence
//   - ObjectStore: Raw file bytes keyed by path
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//   - LLMService: Generates answers from a conversation
//   - ConfigStore: Application configuration
//   - PromptStore: User-editable prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
