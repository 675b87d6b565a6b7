// Package client is the viewer side of the stream: a reconnecting SSE
// listener and an HTTP client for the publish, translate and synthesize
// endpoints.
package client
