// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Loader: Produces a normalised Document from a raw input handle
//   - TenantIndex: Tenant-partitioned vector storage and search
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Text generation, blocking and streaming
//
// # Optional Interfaces
//
//   - PromptStore: Customisable prompt templates. When nil, services
//     fall back to their embedded defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
