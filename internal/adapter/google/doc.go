// Package google adapts Google Cloud Translation (v3) and Text-to-Speech (v1)
// to the domain Translator and Synthesizer contracts.
package google
