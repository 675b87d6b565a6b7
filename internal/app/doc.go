// Package app provides the application service layer.
//
// Orchestrates the server-side use cases: publishing text to the hub and
// proxying translation and speech requests to the external services. Sits
// between HTTP handlers and the hub/upstream adapters, and depends on domain
// interfaces rather than concrete implementations.
package app
