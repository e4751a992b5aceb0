// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (label.go, comment.go, dataset.go, filter.go, etc.)
// with shared types and cross-cutting interfaces. No implementation code beyond small value helpers.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
