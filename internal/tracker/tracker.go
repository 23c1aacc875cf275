package tracker

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/linguabridge/translate-gateway/internal/langid"
	"github.com/rs/zerolog"
)

// Direction is an ordered (source, target) language tuple describing which
// way an utterance should be translated.
type Direction struct {
	Source langid.Language
	Target langid.Language
}

// Inverse returns the opposite direction. A reply to an utterance is
// translated in the inverse of the utterance's own direction.
func (d Direction) Inverse() Direction {
	return Direction{Source: d.Target, Target: d.Source}
}

func (d Direction) String() string {
	return fmt.Sprintf("%s → %s", d.Source.Code, d.Target.Code)
}

// Tracker owns the speaker registry and pair locker for one realtime
// session and answers direction queries. All mutating methods are called
// from the session's serial event loop; concurrent translation dispatches
// only ever see Direction values copied out under that loop.
type Tracker struct {
	registry *Registry
	locker   *Locker
	seq      uint64
	logger   zerolog.Logger
}

// New creates a tracker with an empty registry and no locked pair.
func New(logger zerolog.Logger) *Tracker {
	return &Tracker{
		registry: NewRegistry(),
		locker:   NewLocker(logger),
		logger:   logger,
	}
}

// Registry exposes the underlying speaker registry.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Pair returns the current locked language pair, if any.
func (t *Tracker) Pair() (Pair, bool) {
	return t.locker.Pair()
}

// SetPair pins an explicit pair chosen by the user, disabling automatic
// inference until Reset.
func (t *Tracker) SetPair(source, target langid.Language) error {
	return t.locker.SetPair(source, target)
}

// Reset clears the pair and all speaker identities together. Called on
// session teardown or explicit language re-selection, never automatically.
func (t *Tracker) Reset() {
	t.locker.Reset()
	t.registry.Reset()
	t.seq = 0
}

// AttributeSpeaker maps a detected language to a speaker identity. An
// utterance with no transport speaker hint reuses the most recent active
// speaker of the same language; a never-seen language mints a new identity.
func (t *Tracker) AttributeSpeaker(lang langid.Language) string {
	if sp, ok := t.registry.FindByLanguage(lang.Code); ok {
		return sp.ID
	}
	return "spk-" + uuid.New().String()
}

// Observe records one utterance: the logical clock ticks, the registry is
// upserted, and the locker sees the observation. Returns the transition the
// pair state machine took.
func (t *Tracker) Observe(speakerID string, lang langid.Language) Transition {
	t.seq++
	t.registry.Upsert(speakerID, lang, t.seq)
	sp, _ := t.registry.Get(speakerID)
	return t.locker.Observe(t.registry, sp)
}

// Deactivate marks a speaker as no longer participating.
func (t *Tracker) Deactivate(speakerID string) {
	t.registry.Deactivate(speakerID)
}

// Resolve computes the translation direction for an utterance attributed to
// speakerID.
//
// With no locked pair there is nothing to translate yet and ok is false.
// An unknown speaker (server-originated items carry no attribution) gets
// the pair's default direction. A speaker whose language matches neither
// side is detection drift: logged, then given the default direction rather
// than failing.
func (t *Tracker) Resolve(speakerID string) (Direction, bool) {
	pair, ok := t.locker.Pair()
	if !ok {
		return Direction{}, false
	}

	sp, known := t.registry.Get(speakerID)
	if !known {
		return Direction{Source: pair.Source, Target: pair.Target}, true
	}

	switch sp.Language.Code {
	case pair.Source.Code:
		return Direction{Source: pair.Source, Target: pair.Target}, true
	case pair.Target.Code:
		return Direction{Source: pair.Target, Target: pair.Source}, true
	}

	t.logger.Warn().
		Str("speaker_id", speakerID).
		Str("language", sp.Language.Code).
		Str("source", pair.Source.Code).
		Str("target", pair.Target.Code).
		Msg("Speaker language matches neither side of the locked pair, using default direction")
	return Direction{Source: pair.Source, Target: pair.Target}, true
}

// ResolveLanguage computes the direction for an utterance known only by its
// detected language, e.g. an assistant reply with no speaker identity.
// Unlike Resolve there is no speaker history to lean on, so a language
// matching neither side is reported as unresolved and the caller picks its
// own fallback.
func (t *Tracker) ResolveLanguage(lang langid.Language) (Direction, bool) {
	pair, ok := t.locker.Pair()
	if !ok {
		return Direction{}, false
	}
	switch lang.Code {
	case pair.Source.Code:
		return Direction{Source: pair.Source, Target: pair.Target}, true
	case pair.Target.Code:
		return Direction{Source: pair.Target, Target: pair.Source}, true
	}
	return Direction{}, false
}
