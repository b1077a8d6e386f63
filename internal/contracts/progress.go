package contracts

// StageID identifies one bounded analysis task in the pipeline's fixed
// sequence. The values travel over the websocket progress channel, so they
// are part of the external contract and must not change.
type StageID string

const (
	StageMarket          StageID = "market"
	StageNews            StageID = "news"
	StageFundamental     StageID = "fundamental"
	StageMacro           StageID = "macro"
	StageDecision        StageID = "decision"
	StageDataPreparation StageID = "data_preparation"
)

// ProgressEvent is one unit of observable pipeline progress.
// PartialText is present only for in-progress streaming events; the final
// "stage complete" event carries an empty PartialText.
// Events for a given stage are strictly ordered; events across stages follow
// the orchestrator's fixed stage order.
type ProgressEvent struct {
	Stage       StageID `json:"stage"`
	Message     string  `json:"message"`
	PartialText string  `json:"partial_text,omitempty"`
}

// ProgressSink receives ProgressEvents in emission order.
// Implementations must not reorder or coalesce events; dropping partial-text
// events is allowed since only the final StageResult is consumed downstream.
type ProgressSink interface {
	Emit(ev ProgressEvent)
}

// SinkFunc adapts a function to the ProgressSink interface
type SinkFunc func(ev ProgressEvent)

// Emit implements ProgressSink
func (f SinkFunc) Emit(ev ProgressEvent) { f(ev) }

// NopSink discards all events
var NopSink ProgressSink = SinkFunc(func(ProgressEvent) {})
