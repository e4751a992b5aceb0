// Package app provides the application service layer.
//
// Orchestrates use cases: dataset import, aggregate views, comment browsing, retention.
// Sits between HTTP handlers and domain repositories. Depends on domain interfaces, not concrete implementations.
package app
