// Package redis provides the optional Redis backend: a client constructor
// with metrics and circuit breaker hooks, and the translation cache.
//
// The cache holds recent translations only, with a TTL. It is a cost saver
// for the upstream translation service, not a history of published text.
package redis
