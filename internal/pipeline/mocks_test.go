package pipeline

import (
	"context"
	"sync"

	"github.com/pscheid92/signcast/internal/domain"
)

type translateCall struct {
	Text, Source, Target string
}

type mockTranslator struct {
	mu    sync.Mutex
	calls []translateCall
	fn    func(ctx context.Context, text, target string) (string, error)
}

func (m *mockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, translateCall{text, source, target})
	fn := m.fn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, target)
	}
	return "[" + target + "] " + text, nil
}

func (m *mockTranslator) Calls() []translateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]translateCall(nil), m.calls...)
}

type synthesizeCall struct {
	Text     string
	Language domain.Language
	Gender   domain.Gender
}

type mockSynthesizer struct {
	mu    sync.Mutex
	calls []synthesizeCall
	err   error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text string, lang domain.Language, gender domain.Gender) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, synthesizeCall{text, lang, gender})
	if m.err != nil {
		return nil, m.err
	}
	return []byte("mp3:" + text), nil
}

func (m *mockSynthesizer) Calls() []synthesizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]synthesizeCall(nil), m.calls...)
}

type recordingPlayer struct {
	mu     sync.Mutex
	played [][]byte
	err    error
}

func (p *recordingPlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.played = append(p.played, audio)
	return nil
}

func (p *recordingPlayer) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.played...)
}

// scriptedPlayer answers each Play call (numbered from 1) with script.
type scriptedPlayer struct {
	mu     sync.Mutex
	calls  int
	script func(call int, audio []byte) error
}

func (p *scriptedPlayer) Play(_ context.Context, audio []byte) error {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()
	return p.script(n, audio)
}

// stateRecorder collects every state the observer reports.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) observe(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.states); n == 0 || r.states[n-1] != s.State {
		r.states = append(r.states, s.State)
	}
}

func (r *stateRecorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}
