package contracts

// Direction is a binary up/down call on next-period price movement relative
// to the prior close. Values match the 1/-1 encoding used in backtest
// records.
type Direction int

const (
	DirectionUp   Direction = 1
	DirectionDown Direction = -1
)

// String implements fmt.Stringer
func (d Direction) String() string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// Decision is the structured outcome of one orchestrator run.
// Produced once per run from the decision stage's answer text; immutable
// after creation.
type Decision struct {
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
}

// StageResult holds one analysis stage's accumulated output.
// Both fields empty means the stage was skipped for lack of data OR the
// model legitimately said nothing; downstream treats the two identically
// (excluded from synthesis weight, still rendered as an empty section).
type StageResult struct {
	Reasoning string `json:"reasoning"`
	Answer    string `json:"answer"`
}

// Empty reports whether the stage produced no output at all
func (r StageResult) Empty() bool {
	return r.Reasoning == "" && r.Answer == ""
}
