package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haolin/tianji/backend/internal/contracts"
)

const (
	verdictUp   = "看涨"
	verdictDown = "看跌"
)

// ParseError reports a model answer that does not match the required
// verdict format. The raw answer is kept for logging.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable decision %q: %s", e.Raw, e.Reason)
}

// Parse extracts the final verdict from the decision answer. The prompt
// pins the model to exactly two space-separated tokens, e.g. "看跌 25.98";
// anything else is rejected rather than guessed at.
func Parse(answer string) (contracts.Decision, error) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return contracts.Decision{}, &ParseError{Raw: answer, Reason: "empty answer"}
	}

	parts := strings.Split(trimmed, " ")
	if len(parts) != 2 {
		return contracts.Decision{}, &ParseError{Raw: answer, Reason: fmt.Sprintf("want 2 tokens, got %d", len(parts))}
	}

	var direction contracts.Direction
	switch parts[0] {
	case verdictUp:
		direction = contracts.DirectionUp
	case verdictDown:
		direction = contracts.DirectionDown
	default:
		return contracts.Decision{}, &ParseError{Raw: answer, Reason: fmt.Sprintf("unknown verdict %q", parts[0])}
	}

	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return contracts.Decision{}, &ParseError{Raw: answer, Reason: "price is not a number"}
	}

	return contracts.Decision{Direction: direction, Price: price}, nil
}
