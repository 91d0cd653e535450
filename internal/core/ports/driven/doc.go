// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingService: turns text into vectors (index build and query time)
//   - LLMService: the opaque text-completion service
//   - IndexStore: persists and loads the vector index snapshot and its metadata
//   - ConversationStore: durable, session-keyed exchange log
//   - HistoryCache: bounded short-term view of recent exchanges per session
//   - ConfigStore: application configuration
//   - PromptStore: editable prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
