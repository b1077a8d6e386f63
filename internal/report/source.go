package report

import (
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
)

// Payload is the textual report a source assembles for one analysis stage.
// HasData=false means the backing dataset was missing or empty after
// filtering; the stage is then skipped rather than sent to the model with
// nothing to analyze.
type Payload struct {
	Text    string
	HasData bool
}

// Source assembles the data report for one analysis stage. target is the
// prediction date; every source must only surface data knowable before it.
type Source interface {
	Stage() contracts.StageID
	Build(target time.Time) (Payload, error)
}

// dayStart truncates t to midnight in its location
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
