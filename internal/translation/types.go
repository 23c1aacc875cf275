package translation

import "context"

// Translator is the machine-translation collaborator. The dispatcher
// guarantees it is only called with non-empty text and distinct language
// codes.
type Translator interface {
	// Translate translates text from sourceLang to targetLang. Language
	// codes are ISO 639-1 style ("en", "zh").
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies the translation backend is reachable.
	CheckHealth(ctx context.Context) error
}

// Status is the outcome of a dispatch.
type Status int

const (
	// StatusTranslated means the collaborator was called and a translated
	// message was emitted.
	StatusTranslated Status = iota
	// StatusSkipped means a pre-check short-circuited the dispatch. Skips
	// are expected behavior, not errors.
	StatusSkipped
	// StatusFailed means the collaborator was called and failed. The error
	// is absorbed at this boundary; the session continues.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "translated"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// SkipReason explains a StatusSkipped outcome.
type SkipReason string

const (
	SkipEmpty             SkipReason = "empty"
	SkipSentinel          SkipReason = "sentinel"
	SkipAlreadyTranslated SkipReason = "already_translated"
	SkipIdentityDirection SkipReason = "identity_direction"
	SkipDuplicate         SkipReason = "duplicate"
)

// Outcome reports what a single Dispatch call did.
type Outcome struct {
	Status     Status
	Reason     SkipReason // set when Status == StatusSkipped
	Translated string     // set when Status == StatusTranslated
	Err        error      // set when Status == StatusFailed
}
