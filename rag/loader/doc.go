// Package loader provides a unified DocumentLoader interface and common file loaders
// for building the policy document index.
//
// It bridges the gap between raw corpus files (agency exports, statute dumps,
// internal guidance) and the rag.Document type used by chunkers and vector stores.
// Each loader reads a specific format and produces []rag.Document with source and
// title metadata, so retrieval results can cite where a passage came from.
//
// Supported formats out of the box:
//   - Plain text (.txt)
//   - Markdown (.md)
//   - CSV (.csv)
//   - JSON / JSONL (.json, .jsonl)
//
// Use LoaderRegistry to route loading by file extension:
//
//	registry := loader.NewLoaderRegistry()
//	docs, err := registry.Load(ctx, "/corpus/privacy/gdpr_overview.md")
//
// Custom loaders can be registered for any extension:
//
//	registry.Register(".xml", myXMLLoader)
package loader
