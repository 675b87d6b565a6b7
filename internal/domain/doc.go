// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (message.go, language.go, voice.go, services.go) hold
// shared types and the contracts of the external translation and speech
// services. No implementation code, just contracts.
package domain
