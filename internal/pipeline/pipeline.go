package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/signcast/internal/domain"
)

type State string

const (
	StateIdle                   State = "IDLE"
	StateDebouncing             State = "DEBOUNCING"
	StateTranslating            State = "TRANSLATING"
	StateSynthesizing           State = "SYNTHESIZING"
	StatePlaying                State = "PLAYING"
	StateAwaitingPlayPermission State = "AWAITING_PLAY_PERMISSION"
	StateError                  State = "ERROR"
)

const (
	DefaultDebounceDelay = 500 * time.Millisecond
	DefaultLanguage      = domain.Language("hi-IN")
	DefaultGender        = domain.GenderFemale

	playPendingFailedMessage = "Failed to play audio. Please try again."
	errorMessagePrefix       = "An error occurred: "
)

// Snapshot is a copy of a session's state.
type Snapshot struct {
	InputText         string
	AutoTranslate     bool
	TranslatedText    string
	Language          domain.Language
	Gender            domain.Gender
	Processing        bool
	Error             string
	PendingAudio      []byte
	PlaybackPermitted bool
	State             State
}

type Options struct {
	Language      domain.Language
	Gender        domain.Gender
	DebounceDelay time.Duration
	Clock         clockwork.Clock
	// OnChange receives a snapshot after every transition. It runs outside
	// the pipeline lock and may call back into the pipeline.
	OnChange func(Snapshot)
}

// Pipeline is the per-session state machine. Every change to the input,
// language or gender schedules a trailing-edge debounce; the automatic run
// only happens when the latest input came from the stream. Runs are
// numbered and only the most recently started one may apply its results.
type Pipeline struct {
	translator  domain.Translator
	synthesizer domain.Synthesizer
	player      Player
	clock       clockwork.Clock
	delay       time.Duration
	onChange    func(Snapshot)

	mu          sync.Mutex
	state       Snapshot
	timer       clockwork.Timer
	debounceGen uint64
	seq         uint64
	pendingGen  uint64
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(translator domain.Translator, synthesizer domain.Synthesizer, player Player, opts Options) *Pipeline {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Gender == "" {
		opts.Gender = DefaultGender
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		translator:  translator,
		synthesizer: synthesizer,
		player:      player,
		clock:       opts.Clock,
		delay:       opts.DebounceDelay,
		onChange:    opts.OnChange,
		state: Snapshot{
			AutoTranslate: true,
			Language:      opts.Language,
			Gender:        opts.Gender,
			State:         StateIdle,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// ReceiveText takes a text delivered by the stream and arms the automatic run.
func (p *Pipeline) ReceiveText(text string) {
	p.update(func(s *Snapshot) {
		s.InputText = text
		s.AutoTranslate = true
		p.scheduleLocked()
	})
}

// EditText replaces the input by hand, which suppresses the automatic run.
func (p *Pipeline) EditText(text string) {
	p.update(func(s *Snapshot) {
		s.InputText = text
		s.AutoTranslate = false
		p.scheduleLocked()
	})
}

func (p *Pipeline) SetLanguage(lang domain.Language) {
	p.update(func(s *Snapshot) {
		s.Language = lang
		p.scheduleLocked()
	})
}

func (p *Pipeline) SetGender(g domain.Gender) {
	p.update(func(s *Snapshot) {
		s.Gender = g
		p.scheduleLocked()
	})
}

// Translate runs translate, synthesize and play for the current input right
// away. It counts as a user action, so it also authorizes playback.
func (p *Pipeline) Translate(ctx context.Context) error {
	p.allowPlayback()
	return p.run(ctx)
}

// PlayPending replays audio held back by the autoplay policy. It is a no-op
// when nothing is pending. Audio held by a newer run while this one plays
// stays pending.
func (p *Pipeline) PlayPending(ctx context.Context) error {
	p.mu.Lock()
	audio := p.state.PendingAudio
	gen, seq := p.pendingGen, p.seq
	p.mu.Unlock()
	if audio == nil {
		return nil
	}

	p.allowPlayback()
	if err := p.player.Play(ctx, audio); err != nil {
		slog.WarnContext(ctx, "Pending audio playback failed", "error", err)
		p.update(func(s *Snapshot) { s.Error = playPendingFailedMessage })
		return &PlaybackError{Err: err}
	}

	p.update(func(s *Snapshot) {
		s.PlaybackPermitted = true
		if p.pendingGen == gen {
			s.PendingAudio = nil
		}
		if p.seq == seq {
			s.State = StatePlaying
		}
	})
	return nil
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Close stops the pending debounce timer and waits for an automatic run
// in flight, cancelling its upstream calls.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.debounceGen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Pipeline) scheduleLocked() {
	if p.closed {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}

	p.debounceGen++
	gen := p.debounceGen
	p.timer = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })

	if !p.state.Processing {
		p.state.State = StateDebouncing
	}
}

func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.debounceGen {
		p.mu.Unlock()
		return
	}
	p.timer = nil

	eligible := p.state.AutoTranslate && strings.TrimSpace(p.state.InputText) != ""
	p.state.AutoTranslate = false
	if !eligible {
		if p.state.State == StateDebouncing {
			p.state.State = StateIdle
		}
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.notify(snap)
		return
	}

	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	if err := p.run(p.ctx); err != nil {
		slog.WarnContext(p.ctx, "Automatic run failed", "error", err)
	}
}

func (p *Pipeline) run(ctx context.Context) error {
	var (
		seq    uint64
		text   string
		lang   domain.Language
		gender domain.Gender
		blank  bool
	)
	p.update(func(s *Snapshot) {
		if strings.TrimSpace(s.InputText) == "" {
			blank = true
			return
		}
		p.seq++
		seq = p.seq
		text, lang, gender = s.InputText, s.Language, s.Gender

		s.Processing = true
		s.Error = ""
		s.TranslatedText = ""
		s.State = StateTranslating
	})
	if blank {
		return nil
	}
	defer p.finish(seq)

	translated := text
	if !lang.IsDefault() {
		var err error
		translated, err = p.translator.Translate(ctx, text, domain.SourceLanguage, lang.TranslationCode())
		if err != nil {
			return p.fail(seq, &TranslationError{Err: err})
		}
	}

	if !p.applyIfLatest(seq, func(s *Snapshot) {
		s.TranslatedText = translated
		s.State = StateSynthesizing
	}) {
		return nil
	}

	audio, err := p.synthesizer.Synthesize(ctx, translated, lang, domain.NormalizeGender(string(gender)))
	if err != nil {
		return p.fail(seq, &SpeechError{Err: err})
	}
	if !p.isLatest(seq) {
		return nil
	}

	err = p.player.Play(ctx, audio)
	switch {
	case err == nil:
		p.applyIfLatest(seq, func(s *Snapshot) {
			s.PendingAudio = nil
			p.pendingGen++
			s.PlaybackPermitted = true
			s.State = StatePlaying
		})
		return nil
	case errors.Is(err, ErrPlaybackNotAllowed):
		slog.DebugContext(ctx, "Playback not allowed yet, holding audio")
		p.applyIfLatest(seq, func(s *Snapshot) {
			s.PendingAudio = audio
			p.pendingGen++
			s.State = StateAwaitingPlayPermission
		})
		return nil
	default:
		return p.fail(seq, &PlaybackError{Err: err})
	}
}

// fail surfaces err on the latest run: ERROR, then back to IDLE with the
// message kept. Superseded runs fail silently.
func (p *Pipeline) fail(seq uint64, err error) error {
	msg := errorMessagePrefix + errors.Unwrap(err).Error()
	if !p.applyIfLatest(seq, func(s *Snapshot) {
		s.Error = msg
		s.State = StateError
	}) {
		return nil
	}
	p.applyIfLatest(seq, func(s *Snapshot) { s.State = StateIdle })
	return err
}

func (p *Pipeline) finish(seq uint64) {
	p.applyIfLatest(seq, func(s *Snapshot) { s.Processing = false })
}

func (p *Pipeline) isLatest(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return seq == p.seq
}

func (p *Pipeline) applyIfLatest(seq uint64, fn func(*Snapshot)) bool {
	applied := false
	p.update(func(s *Snapshot) {
		if seq != p.seq {
			return
		}
		fn(s)
		applied = true
	})
	return applied
}

func (p *Pipeline) update(fn func(*Snapshot)) {
	p.mu.Lock()
	fn(&p.state)
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

func (p *Pipeline) snapshotLocked() Snapshot {
	snap := p.state
	snap.PendingAudio = bytes.Clone(p.state.PendingAudio)
	return snap
}

func (p *Pipeline) notify(snap Snapshot) {
	if p.onChange != nil {
		p.onChange(snap)
	}
}

func (p *Pipeline) allowPlayback() {
	if g, ok := p.player.(gestureAware); ok {
		g.Allow()
	}
}
