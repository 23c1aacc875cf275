package tracker

import (
	"sort"

	"github.com/linguabridge/translate-gateway/internal/langid"
)

// Speaker is one inferred voice identity. Identities are never deleted for
// the life of a session; superseded speakers are only marked inactive.
type Speaker struct {
	ID       string
	Language langid.Language

	// LastSpokenSeq is the logical-clock value of the most recent utterance
	// attributed to this speaker. Recency decisions use this sequence, not
	// wall time, so the state machine stays deterministic under test.
	LastSpokenSeq uint64

	Active bool
}

// Registry holds every speaker identity observed during a session.
//
// The registry is a plain map mutated by the session's serial event loop;
// it carries no lock of its own.
type Registry struct {
	speakers map[string]*Speaker
}

// NewRegistry creates an empty speaker registry.
func NewRegistry() *Registry {
	return &Registry{speakers: make(map[string]*Speaker)}
}

// Upsert records an utterance for speakerID. An unknown ID creates a new
// active speaker; a known ID has its language and recency refreshed and is
// reactivated.
func (r *Registry) Upsert(speakerID string, lang langid.Language, seq uint64) {
	if sp, ok := r.speakers[speakerID]; ok {
		sp.Language = lang
		sp.LastSpokenSeq = seq
		sp.Active = true
		return
	}
	r.speakers[speakerID] = &Speaker{
		ID:            speakerID,
		Language:      lang,
		LastSpokenSeq: seq,
		Active:        true,
	}
}

// Deactivate marks a speaker inactive. The entry is retained.
func (r *Registry) Deactivate(speakerID string) {
	if sp, ok := r.speakers[speakerID]; ok {
		sp.Active = false
	}
}

// Get returns a copy of the speaker with the given ID.
func (r *Registry) Get(speakerID string) (Speaker, bool) {
	if sp, ok := r.speakers[speakerID]; ok {
		return *sp, true
	}
	return Speaker{}, false
}

// ActiveSpeakers returns active speakers ordered most-recently-spoken
// first. This ordering is the basis for every "who spoke last" decision.
func (r *Registry) ActiveSpeakers() []Speaker {
	out := make([]Speaker, 0, len(r.speakers))
	for _, sp := range r.speakers {
		if sp.Active {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSpokenSeq > out[j].LastSpokenSeq
	})
	return out
}

// FindByLanguage returns the most-recently-active speaker whose language
// matches code. Used to reuse an identity when a language reappears instead
// of minting a new speaker per utterance.
func (r *Registry) FindByLanguage(code string) (Speaker, bool) {
	var best *Speaker
	for _, sp := range r.speakers {
		if !sp.Active || sp.Language.Code != code {
			continue
		}
		if best == nil || sp.LastSpokenSeq > best.LastSpokenSeq {
			best = sp
		}
	}
	if best == nil {
		return Speaker{}, false
	}
	return *best, true
}

// LastSeqForLanguage returns the most recent utterance sequence among
// active speakers of the given language, or 0 when none has spoken.
func (r *Registry) LastSeqForLanguage(code string) uint64 {
	var last uint64
	for _, sp := range r.speakers {
		if sp.Active && sp.Language.Code == code && sp.LastSpokenSeq > last {
			last = sp.LastSpokenSeq
		}
	}
	return last
}

// Len returns the total number of known speakers, active or not.
func (r *Registry) Len() int {
	return len(r.speakers)
}

// Reset drops all speaker identities. Only the owning session calls this,
// when the realtime session is torn down or languages are re-selected.
func (r *Registry) Reset() {
	r.speakers = make(map[string]*Speaker)
}
