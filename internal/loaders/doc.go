// Package loaders contains the ingestion adapters, one per source
// type. Each loader implements the driven.Loader port: it turns a raw
// input handle (file path or URL) into a normalised domain.Document.
//
// Loaders fetch and parse only; chunking, tagging, embedding and
// indexing happen in the ingestion service. The set of loaders is
// closed - pdf, web and youtube - and selection is by source type.
package loaders
