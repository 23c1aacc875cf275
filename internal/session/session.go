package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linguabridge/translate-gateway/internal/config"
	"github.com/linguabridge/translate-gateway/internal/langid"
	"github.com/linguabridge/translate-gateway/internal/observability"
	"github.com/linguabridge/translate-gateway/internal/realtime"
	"github.com/linguabridge/translate-gateway/internal/tracker"
	"github.com/linguabridge/translate-gateway/internal/transcript"
	"github.com/linguabridge/translate-gateway/internal/translation"
	"github.com/rs/zerolog"
)

// Session drives the speaker/language-pair state machine for one realtime
// conversation. It is a single-threaded reducer over the serial event
// stream: registry, locker and resolver state are only touched from Run's
// goroutine. Translation dispatches are fired off asynchronously so a slow
// collaborator round trip never stalls the next incoming event.
type Session struct {
	id         string
	cfg        *config.Config
	tracker    *tracker.Tracker
	dispatcher *translation.Dispatcher
	detect     langid.DetectorFunc
	sink       transcript.Sink
	metrics    *observability.Metrics
	logger     zerolog.Logger

	// lastUserDir remembers the direction resolved for the most recent user
	// utterance; a reply whose language cannot be detected is translated in
	// its inverse.
	lastUserDir tracker.Direction
	hasUserDir  bool

	wg sync.WaitGroup
}

// New wires a session. The translator and sink are collaborators owned by
// the caller; everything stateful (registry, locker, dedup cache) is
// created fresh here with the session's lifetime.
func New(cfg *config.Config, translator translation.Translator, sink transcript.Sink) *Session {
	id := "sess-" + uuid.New().String()
	logger := observability.WithCorrelationID("").With().Str("session_id", id).Logger()
	metrics := observability.NewSessionMetrics(id)

	tr := tracker.New(logger)
	if cfg.SourceLanguage != "" && cfg.TargetLanguage != "" {
		source := langid.ByCode(cfg.SourceLanguage)
		target := langid.ByCode(cfg.TargetLanguage)
		if err := tr.SetPair(source, target); err != nil {
			logger.Warn().Err(err).Msg("Ignoring invalid pinned language pair from config")
		}
	}

	cache := translation.NewRequestCache(
		time.Duration(cfg.DedupWindowMs)*time.Millisecond,
		time.Duration(cfg.HistoryRetentionMs)*time.Millisecond,
	)
	dispatcher := translation.NewDispatcher(translator, sink, cache, cfg.DedupPrefixLen, metrics, logger)

	return &Session{
		id:         id,
		cfg:        cfg,
		tracker:    tr,
		dispatcher: dispatcher,
		detect:     langid.Detect,
		sink:       sink,
		metrics:    metrics,
		logger:     logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run consumes events until the context is cancelled or the channel
// closes. Teardown does not cancel in-flight translations; it just stops
// consuming.
func (s *Session) Run(ctx context.Context, events <-chan realtime.Event) {
	s.metrics.RecordSessionStart()
	defer s.metrics.RecordSessionEnd()
	s.logger.Info().Msg("Session started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Session context cancelled")
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Info().Msg("Event stream closed, session ending")
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

// Flush waits for in-flight translation dispatches to finish. Used by
// tests and graceful shutdown; normal teardown does not need it.
func (s *Session) Flush() {
	s.wg.Wait()
}

func (s *Session) handleEvent(ctx context.Context, ev realtime.Event) {
	s.metrics.RecordEvent(ev.Type)

	switch ev.Type {
	case realtime.EventTranscriptionDelta:
		if text := strings.TrimSpace(ev.Text); text != "" {
			if err := s.sink.Append(s.messageID(ev), transcript.RoleUser, text, true); err != nil {
				s.logger.Error().Err(err).Msg("Failed to append interim transcription")
			}
		}

	case realtime.EventTranscriptionCompleted, realtime.EventFunctionCallDone:
		s.handleUtterance(ctx, ev)

	case realtime.EventResponseDone:
		s.handleReply(ctx, ev)

	case realtime.EventPairSelected:
		s.handlePairSelected(ev)

	case realtime.EventPairReset:
		s.tracker.Reset()
		s.hasUserDir = false
		s.metrics.RecordPairTransition("reset")
		s.logger.Info().Msg("Language pair and speaker registry reset")

	default:
		s.logger.Debug().Str("type", ev.Type).Msg("Ignoring event")
	}
}

// handleUtterance processes a final user transcription: attribute it to a
// speaker, feed the pair state machine, resolve the direction and dispatch
// the translation.
func (s *Session) handleUtterance(ctx context.Context, ev realtime.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	if err := s.sink.Append(s.messageID(ev), transcript.RoleUser, text, false); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append user utterance")
	}

	lang, detected := s.detect(text)
	speakerID := ev.SpeakerHint

	if !detected && speakerID != "" {
		// Detection came up empty; trust the speaker's previous language.
		if sp, known := s.tracker.Registry().Get(speakerID); known {
			lang = sp.Language
			detected = true
		}
	}
	if !detected {
		s.logger.Debug().Str("item_id", ev.ItemID).Msg("No language detected for utterance, skipping")
		return
	}

	if speakerID == "" {
		speakerID = s.tracker.AttributeSpeaker(lang)
	}

	if transition := s.tracker.Observe(speakerID, lang); transition != tracker.TransitionNone {
		s.metrics.RecordPairTransition(transition.String())
	}

	dir, ok := s.tracker.Resolve(speakerID)
	if !ok {
		// Expected before two languages have been observed.
		return
	}
	s.lastUserDir = dir
	s.hasUserDir = true

	s.dispatch(ctx, text, dir)
}

// handleReply processes the model's spoken reply, assumed to be in the
// other language of the pair: its direction is resolved from its detected
// language, falling back to the inverse of the last user direction.
func (s *Session) handleReply(ctx context.Context, ev realtime.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	if err := s.sink.Append(s.messageID(ev), transcript.RoleAssistant, text, false); err != nil {
		s.logger.Error().Err(err).Msg("Failed to append assistant reply")
	}

	var dir tracker.Direction
	ok := false
	if lang, detected := s.detect(text); detected {
		dir, ok = s.tracker.ResolveLanguage(lang)
	}
	if !ok && s.hasUserDir {
		dir = s.lastUserDir.Inverse()
		ok = true
	}
	if !ok {
		return
	}

	s.dispatch(ctx, text, dir)
}

func (s *Session) handlePairSelected(ev realtime.Event) {
	source := langid.ByCode(ev.Source)
	target := langid.ByCode(ev.Target)
	if err := s.tracker.SetPair(source, target); err != nil {
		s.logger.Warn().Err(err).Msg("Rejected language pair selection")
		return
	}
	s.hasUserDir = false
	s.metrics.RecordPairTransition("pinned")
}

// dispatch fires a translation without blocking the event loop. In-flight
// dispatches are never cancelled; they run to completion or failure.
func (s *Session) dispatch(ctx context.Context, text string, dir tracker.Direction) {
	dispatchCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatcher.Dispatch(dispatchCtx, text, dir)
	}()
}

func (s *Session) messageID(ev realtime.Event) string {
	if ev.ItemID != "" {
		return ev.ItemID
	}
	return "msg-" + uuid.New().String()
}
