// Package pipeline turns received text into speech for one viewing session:
// debounce, translate, synthesize, play.
package pipeline
