package observability

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func translationLatencySnapshot(t *testing.T) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	if err := translationLatency.Write(m); err != nil {
		t.Fatalf("Failed to read latency histogram: %v", err)
	}
	return m.Histogram.GetSampleCount(), m.Histogram.GetSampleSum()
}

func TestMetrics_OverlappingTranslationsMeasureOwnLatency(t *testing.T) {
	m := NewSessionMetrics("sess-test")
	countBefore, sumBefore := translationLatencySnapshot(t)

	first := m.RecordTranslationStart()
	time.Sleep(20 * time.Millisecond)
	second := m.RecordTranslationStart()

	// The later round trip finishes first; the earlier one must still be
	// measured from its own start, not from the later one's.
	m.RecordTranslationEnd(second, true)
	time.Sleep(20 * time.Millisecond)
	m.RecordTranslationEnd(first, true)

	count, sum := translationLatencySnapshot(t)
	if count-countBefore != 2 {
		t.Fatalf("expected 2 latency samples, got %d", count-countBefore)
	}
	// first ran ~40ms and second ~20ms; a shared start time would have
	// recorded first as ~20ms and the sum near 40ms.
	if added := sum - sumBefore; added < 0.055 {
		t.Errorf("expected combined latency of at least 55ms, got %.3fs", added)
	}
}

func TestMetrics_TranslationEndWithZeroStartSkipsLatency(t *testing.T) {
	m := NewSessionMetrics("sess-test")
	countBefore, _ := translationLatencySnapshot(t)

	m.RecordTranslationEnd(time.Time{}, false)

	count, _ := translationLatencySnapshot(t)
	if count != countBefore {
		t.Errorf("expected no latency sample for a zero start time, got %d new", count-countBefore)
	}
}
