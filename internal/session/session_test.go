package session

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/linguabridge/translate-gateway/internal/config"
	"github.com/linguabridge/translate-gateway/internal/realtime"
	"github.com/linguabridge/translate-gateway/internal/transcript"
)

type fakeTranslator struct {
	mu    sync.Mutex
	calls []string // "text|src|tgt"
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text+"|"+sourceLang+"|"+targetLang)
	return "translated: " + text, nil
}

func (f *fakeTranslator) CheckHealth(ctx context.Context) error { return nil }

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:       "test-key",
		DedupWindowMs:      5000,
		HistoryRetentionMs: 300000,
		DedupPrefixLen:     64,
	}
}

func newTestSession(cfg *config.Config) (*Session, *fakeTranslator, *transcript.MemorySink) {
	ft := &fakeTranslator{}
	sink := transcript.NewMemorySink()
	return New(cfg, ft, sink), ft, sink
}

func utterance(itemID, speaker, text string) realtime.Event {
	return realtime.Event{
		Type:        realtime.EventTranscriptionCompleted,
		ItemID:      itemID,
		SpeakerHint: speaker,
		Text:        text,
	}
}

func translatedMessages(sink *transcript.MemorySink) []transcript.Message {
	var out []transcript.Message
	for _, m := range sink.Messages() {
		if strings.HasPrefix(m.Content, "[") {
			out = append(out, m)
		}
	}
	return out
}

func TestSession_TwoSpeakerConversation(t *testing.T) {
	sess, ft, sink := newTestSession(testConfig())
	ctx := context.Background()

	// First utterance: Chinese, no pair yet, nothing to translate.
	sess.handleEvent(ctx, utterance("item-1", "s1", "你好，今天怎么样"))
	sess.Flush()
	if ft.callCount() != 0 {
		t.Fatalf("expected no translation before pair lock, got %d calls", ft.callCount())
	}

	// Second speaker in English: pair locks zh -> en, utterance translates
	// en -> zh.
	sess.handleEvent(ctx, utterance("item-2", "s2", "Hello there, nice to meet you"))
	sess.Flush()
	if ft.callCount() != 1 {
		t.Fatalf("expected 1 translation after pair lock, got %d", ft.callCount())
	}

	translated := translatedMessages(sink)
	if len(translated) != 1 {
		t.Fatalf("expected 1 translated message, got %d", len(translated))
	}
	if !strings.HasPrefix(translated[0].Content, "[en → zh] ") {
		t.Errorf("expected [en → zh] marker, got %q", translated[0].Content)
	}
	if translated[0].Role != transcript.RoleAssistant {
		t.Errorf("expected assistant role on translated message, got %s", translated[0].Role)
	}

	// Assistant reply in Chinese: inverse direction zh -> en.
	sess.handleEvent(ctx, realtime.Event{
		Type:   realtime.EventResponseDone,
		ItemID: "resp-1",
		Text:   "很高兴认识你",
	})
	sess.Flush()

	translated = translatedMessages(sink)
	if len(translated) != 2 {
		t.Fatalf("expected 2 translated messages, got %d", len(translated))
	}
	var sawReply bool
	for _, m := range translated {
		if strings.HasPrefix(m.Content, "[zh → en] ") {
			sawReply = true
		}
	}
	if !sawReply {
		t.Error("expected the reply translated with a [zh → en] marker")
	}
}

func TestSession_ReplyInThirdLanguageInvertsLastUserDirection(t *testing.T) {
	sess, _, sink := newTestSession(testConfig())
	ctx := context.Background()

	// Lock zh -> en, then make the most recent user direction zh -> en.
	sess.handleEvent(ctx, utterance("item-1", "s1", "你好，今天怎么样"))
	sess.handleEvent(ctx, utterance("item-2", "s2", "Hello there, nice to meet you"))
	sess.handleEvent(ctx, utterance("item-3", "s1", "我很好，谢谢你"))
	sess.Flush()

	// The reply's language matches neither side of the pair; it must be
	// translated in the inverse of the last user direction, never repeat it.
	sess.handleEvent(ctx, realtime.Event{
		Type:   realtime.EventResponseDone,
		ItemID: "resp-1",
		Text:   "안녕하세요 반갑습니다",
	})
	sess.Flush()

	var replyMarker string
	for _, m := range translatedMessages(sink) {
		if strings.Contains(m.Content, "안녕하세요") {
			replyMarker = m.Content
		}
	}
	if replyMarker == "" {
		t.Fatal("expected the reply to be translated")
	}
	if !strings.HasPrefix(replyMarker, "[en → zh] ") {
		t.Errorf("expected inverse direction [en → zh], got %q", replyMarker)
	}
}

func TestSession_RedeliveredEventTranslatesOnce(t *testing.T) {
	sess, ft, _ := newTestSession(testConfig())
	ctx := context.Background()

	sess.handleEvent(ctx, utterance("item-1", "s1", "你好"))
	ev := utterance("item-2", "s2", "Hello there, nice to meet you")
	sess.handleEvent(ctx, ev)
	sess.handleEvent(ctx, ev) // transport redelivery
	sess.Flush()

	if ft.callCount() != 1 {
		t.Errorf("expected exactly 1 collaborator call for redelivered event, got %d", ft.callCount())
	}
}

func TestSession_ReplyWithoutPairIsIgnored(t *testing.T) {
	sess, ft, _ := newTestSession(testConfig())
	ctx := context.Background()

	sess.handleEvent(ctx, realtime.Event{
		Type: realtime.EventResponseDone,
		Text: "Hello there",
	})
	sess.Flush()

	if ft.callCount() != 0 {
		t.Errorf("expected no translation without a pair, got %d calls", ft.callCount())
	}
}

func TestSession_EmptyUtteranceIgnored(t *testing.T) {
	sess, ft, sink := newTestSession(testConfig())
	ctx := context.Background()

	sess.handleEvent(ctx, utterance("item-1", "s1", "   "))
	sess.Flush()

	if ft.callCount() != 0 {
		t.Error("empty utterance must not reach the collaborator")
	}
	if sink.Len() != 0 {
		t.Error("empty utterance must not be appended")
	}
}

func TestSession_PairSelectionAndReset(t *testing.T) {
	sess, ft, _ := newTestSession(testConfig())
	ctx := context.Background()

	// Explicit selection pins en -> fr regardless of observations.
	sess.handleEvent(ctx, realtime.Event{
		Type:   realtime.EventPairSelected,
		Source: "en",
		Target: "fr",
	})

	sess.handleEvent(ctx, utterance("item-1", "s1", "你好，今天怎么样"))
	sess.Flush()
	pair, ok := sess.tracker.Pair()
	if !ok || pair.Source.Code != "en" || pair.Target.Code != "fr" {
		t.Fatalf("expected pinned en -> fr pair, got %+v ok=%v", pair, ok)
	}

	// The Chinese utterance matched neither side: default direction en -> fr.
	if ft.callCount() != 1 {
		t.Fatalf("expected 1 translation under pinned pair, got %d", ft.callCount())
	}

	// Reset clears everything; no pair, no translation.
	sess.handleEvent(ctx, realtime.Event{Type: realtime.EventPairReset})
	sess.handleEvent(ctx, utterance("item-2", "s2", "Hello again, friend"))
	sess.Flush()

	if _, ok := sess.tracker.Pair(); ok {
		t.Error("expected no pair after reset")
	}
	if ft.callCount() != 1 {
		t.Errorf("expected no further translations after reset, got %d", ft.callCount())
	}
}

func TestSession_InterimTranscriptionStreamsToSink(t *testing.T) {
	sess, ft, sink := newTestSession(testConfig())
	ctx := context.Background()

	sess.handleEvent(ctx, realtime.Event{
		Type:   realtime.EventTranscriptionDelta,
		ItemID: "item-1",
		Text:   "Hello th",
	})
	sess.Flush()

	msgs := sink.Messages()
	if len(msgs) != 1 || !msgs[0].IsStreaming {
		t.Fatalf("expected one streaming message, got %+v", msgs)
	}
	if ft.callCount() != 0 {
		t.Error("interim results must not be translated")
	}

	// The final transcription replaces the interim line under the same ID.
	sess.handleEvent(ctx, utterance("item-1", "s1", "Hello there"))
	sess.Flush()
	msgs = sink.Messages()
	if len(msgs) != 1 || msgs[0].IsStreaming || msgs[0].Content != "Hello there" {
		t.Errorf("expected final text to replace interim under same ID, got %+v", msgs)
	}
}

func TestSession_RunStopsOnChannelClose(t *testing.T) {
	sess, ft, _ := newTestSession(testConfig())

	events := make(chan realtime.Event, 4)
	events <- utterance("item-1", "s1", "你好")
	events <- utterance("item-2", "s2", "Hello there, friend")
	close(events)

	done := make(chan struct{})
	go func() {
		sess.Run(context.Background(), events)
		close(done)
	}()
	<-done
	sess.Flush()

	if ft.callCount() != 1 {
		t.Errorf("expected 1 translation from drained stream, got %d", ft.callCount())
	}
}
