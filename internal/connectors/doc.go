// Package connectors provides document source implementations. Each
// connector knows how to read documents from a specific source type.
// The filesystem connector is the only source; ingestion is local by
// design.
package connectors
