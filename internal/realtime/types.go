package realtime

// Server event types consumed by the session. The transport delivers these
// serially on one connection; redelivery of the same event is possible and
// handled downstream.
const (
	EventTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	EventResponseDone           = "response.done"
	EventFunctionCallDone       = "response.function_call_arguments.done"

	// Client-originated control events, injected into the same stream so the
	// session stays a single serial reducer.
	EventPairSelected = "language_pair.selected"
	EventPairReset    = "language_pair.reset"
)

// Event is the slice of the realtime wire protocol the session consumes.
// Finality is carried by the event type: deltas are interim, completed
// transcriptions are final.
type Event struct {
	Type        string `json:"type"`
	ItemID      string `json:"item_id,omitempty"`
	SpeakerHint string `json:"speaker_hint,omitempty"`
	Text        string `json:"text,omitempty"`

	// Pair selection payload, only on EventPairSelected.
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}
