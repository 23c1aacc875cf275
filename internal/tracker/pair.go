package tracker

import (
	"fmt"

	"github.com/linguabridge/translate-gateway/internal/langid"
	"github.com/rs/zerolog"
)

// Pair is the locked pair of conversation languages. Translation only ever
// happens between Source and Target. Invariant: Source.Code != Target.Code
// whenever a pair is present.
type Pair struct {
	Source langid.Language
	Target langid.Language

	// SourceSpeaker/TargetSpeaker record which identities established each
	// side, when known. Informational only.
	SourceSpeaker string
	TargetSpeaker string
}

// Transition describes what a locker observation did to the pair state.
type Transition int

const (
	TransitionNone     Transition = iota // pair unchanged
	TransitionLocked                     // NoPair -> Locked
	TransitionExtended                   // one side replaced by a new language
	TransitionRejected                   // update refused to keep the pair valid
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionLocked:
		return "locked"
	case TransitionExtended:
		return "extended"
	case TransitionRejected:
		return "rejected"
	}
	return "unknown"
}

// Locker owns the {NoPair, Locked} state machine for the session's language
// pair. Like the registry it is driven from the session's serial event loop
// and holds no lock.
type Locker struct {
	pair   *Pair
	pinned bool
	logger zerolog.Logger
}

// NewLocker creates a locker with no pair established.
func NewLocker(logger zerolog.Logger) *Locker {
	return &Locker{logger: logger}
}

// Pair returns the current locked pair, if any.
func (l *Locker) Pair() (Pair, bool) {
	if l.pair == nil {
		return Pair{}, false
	}
	return *l.pair, true
}

// Pinned reports whether the pair was set explicitly and is therefore
// exempt from automatic inference.
func (l *Locker) Pinned() bool {
	return l.pinned
}

// SetPair installs an explicit language pair, as chosen in the language
// selection UI. A pinned pair is never mutated by observations; only Reset
// clears it. Equal source and target codes are refused.
func (l *Locker) SetPair(source, target langid.Language) error {
	if source.Code == target.Code {
		return fmt.Errorf("invalid language pair: source and target are both %q", source.Code)
	}
	l.pair = &Pair{Source: source, Target: target}
	l.pinned = true
	l.logger.Info().
		Str("source", source.Code).
		Str("target", target.Code).
		Msg("Language pair pinned by explicit selection")
	return nil
}

// Reset clears the pair. This is the only transition back to NoPair; the
// state machine never drops a pair on its own.
func (l *Locker) Reset() {
	l.pair = nil
	l.pinned = false
}

// Observe feeds one utterance observation into the state machine. The
// registry must already reflect the upsert for this utterance. sp is the
// speaker the utterance was attributed to.
func (l *Locker) Observe(reg *Registry, sp Speaker) Transition {
	if l.pinned {
		return TransitionNone
	}

	if l.pair == nil {
		return l.tryLock(reg)
	}

	lang := sp.Language
	if lang.Code == l.pair.Source.Code || lang.Code == l.pair.Target.Code {
		// Known language, only registry recency moved.
		return TransitionNone
	}
	return l.extend(reg, sp)
}

// tryLock establishes a pair once the two most-recently-active speakers
// cover exactly two distinct languages. The earlier-active language becomes
// Source, the more recent one Target. The ordering is arbitrary but must be
// stable because direction resolution builds on it.
func (l *Locker) tryLock(reg *Registry) Transition {
	active := reg.ActiveSpeakers()

	// Walk most-recent-first and pick the first two distinct languages.
	var newer, older *Speaker
	for i := range active {
		sp := active[i]
		if newer == nil {
			newer = &sp
			continue
		}
		if sp.Language.Code != newer.Language.Code {
			older = &sp
			break
		}
	}
	if newer == nil || older == nil {
		return TransitionNone
	}

	if older.Language.Code == newer.Language.Code {
		// Cannot happen given the selection above; guarded because the
		// upstream detection heuristics are unreliable.
		return TransitionRejected
	}

	l.pair = &Pair{
		Source:        older.Language,
		Target:        newer.Language,
		SourceSpeaker: older.ID,
		TargetSpeaker: newer.ID,
	}
	l.logger.Info().
		Str("source", older.Language.Code).
		Str("target", newer.Language.Code).
		Msg("Language pair locked")
	return TransitionLocked
}

// extend handles a third language entering a locked conversation: the side
// whose language was least recently used is replaced, on the assumption
// that the slower-turnover participant dropped out.
func (l *Locker) extend(reg *Registry, sp Speaker) Transition {
	next := *l.pair

	sourceSeq := reg.LastSeqForLanguage(next.Source.Code)
	targetSeq := reg.LastSeqForLanguage(next.Target.Code)

	// The upserted speaker holds the newest sequence, so its language never
	// counts toward either side's recency here.
	if sourceSeq <= targetSeq {
		next.Source = sp.Language
		next.SourceSpeaker = sp.ID
	} else {
		next.Target = sp.Language
		next.TargetSpeaker = sp.ID
	}

	if next.Source.Code == next.Target.Code {
		l.logger.Warn().
			Str("language", sp.Language.Code).
			Str("source", l.pair.Source.Code).
			Str("target", l.pair.Target.Code).
			Msg("Pair update would collapse source and target, keeping previous pair")
		return TransitionRejected
	}

	l.logger.Info().
		Str("language", sp.Language.Code).
		Str("source", next.Source.Code).
		Str("target", next.Target.Code).
		Msg("Language pair extended with new language")
	l.pair = &next
	return TransitionExtended
}
