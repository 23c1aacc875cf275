package translation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linguabridge/translate-gateway/internal/observability"
	"github.com/linguabridge/translate-gateway/internal/tracker"
	"github.com/linguabridge/translate-gateway/internal/transcript"
	"github.com/rs/zerolog"
)

// markerPattern recognizes the "[src → tgt]" prefix the dispatcher itself
// stamps on translated messages. This format is stable: the UI displays it
// and this guard parses it back, so both depend on it.
var markerPattern = regexp.MustCompile(`^\[[A-Za-z][A-Za-z0-9-]* → [A-Za-z][A-Za-z0-9-]*\]`)

// sentinelTexts are placeholder strings the transcription layer emits when
// it has nothing to say. They must never reach the collaborator.
var sentinelTexts = map[string]struct{}{
	"no speech detected": {},
	"still listening":    {},
	"...":                {},
}

// FormatMarker renders the direction marker for a translated message.
func FormatMarker(dir tracker.Direction) string {
	return fmt.Sprintf("[%s → %s]", dir.Source.Code, dir.Target.Code)
}

// IsTranslationMessage reports whether text is already a translated message
// carrying a direction marker. Translating it again would start a cascade.
func IsTranslationMessage(text string) bool {
	return markerPattern.MatchString(strings.TrimSpace(text))
}

// Dispatcher invokes the translation collaborator for resolved utterances,
// suppresses duplicate and circular requests, and emits translated
// messages to the transcript sink.
//
// Dispatch is safe to call from multiple goroutines; the shared request
// cache carries its own lock. A failed translation is logged and absorbed
// here so it can never stall or crash the session.
type Dispatcher struct {
	translator Translator
	sink       transcript.Sink
	cache      *RequestCache
	prefixLen  int
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewDispatcher wires a dispatcher. The cache is injected so tests (and
// sessions) own isolated dedup state; metrics may be nil.
func NewDispatcher(translator Translator, sink transcript.Sink, cache *RequestCache, prefixLen int, metrics *observability.Metrics, logger zerolog.Logger) *Dispatcher {
	if prefixLen <= 0 {
		prefixLen = 64
	}
	return &Dispatcher{
		translator: translator,
		sink:       sink,
		cache:      cache,
		prefixLen:  prefixLen,
		metrics:    metrics,
		logger:     logger,
	}
}

// Dispatch runs the pre-checks and, when they all pass, calls the
// collaborator and emits the marked translation. Each skip is a
// short-circuit, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, dir tracker.Direction) Outcome {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return d.skip(SkipEmpty, trimmed, dir)
	}
	if _, ok := sentinelTexts[strings.ToLower(trimmed)]; ok {
		return d.skip(SkipSentinel, trimmed, dir)
	}
	if IsTranslationMessage(trimmed) {
		return d.skip(SkipAlreadyTranslated, trimmed, dir)
	}
	if dir.Source.Code == dir.Target.Code {
		// An identity pair is invalid and must never be used for
		// translation; skipping keeps it harmless.
		return d.skip(SkipIdentityDirection, trimmed, dir)
	}

	key := RequestKey(trimmed, dir.Source.Code, dir.Target.Code, d.prefixLen)
	if d.cache.Suppress(key) {
		// The transport occasionally redelivers events; this is expected,
		// so it is traced rather than logged as an error.
		d.logger.Trace().
			Str("direction", dir.String()).
			Str("text", trimmed).
			Msg("Duplicate translation request suppressed")
		if d.metrics != nil {
			d.metrics.RecordSkip(string(SkipDuplicate))
		}
		return Outcome{Status: StatusSkipped, Reason: SkipDuplicate}
	}

	var started time.Time
	if d.metrics != nil {
		started = d.metrics.RecordTranslationStart()
	}

	translated, err := d.translator.Translate(ctx, trimmed, dir.Source.Code, dir.Target.Code)
	if err != nil {
		d.logger.Error().Err(err).
			Str("direction", dir.String()).
			Msg("Translation collaborator failed, no translation shown for this line")
		if d.metrics != nil {
			d.metrics.RecordTranslationEnd(started, false)
			d.metrics.RecordError("translate_error", "translator")
		}
		return Outcome{Status: StatusFailed, Err: err}
	}

	if d.metrics != nil {
		d.metrics.RecordTranslationEnd(started, true)
	}

	content := FormatMarker(dir) + " " + translated
	msgID := "tr-" + uuid.New().String()
	if err := d.sink.Append(msgID, transcript.RoleAssistant, content, false); err != nil {
		d.logger.Error().Err(err).Msg("Failed to emit translated message")
		if d.metrics != nil {
			d.metrics.RecordError("sink_error", "dispatcher")
		}
	}

	d.logger.Debug().
		Str("direction", dir.String()).
		Str("message_id", msgID).
		Msg("Translation emitted")
	return Outcome{Status: StatusTranslated, Translated: translated}
}

func (d *Dispatcher) skip(reason SkipReason, text string, dir tracker.Direction) Outcome {
	d.logger.Debug().
		Str("reason", string(reason)).
		Str("direction", dir.String()).
		Str("text", text).
		Msg("Translation dispatch skipped")
	if d.metrics != nil {
		d.metrics.RecordSkip(string(reason))
	}
	return Outcome{Status: StatusSkipped, Reason: reason}
}
