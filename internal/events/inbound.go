package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ActionJoinGame    = "JOIN_GAME"
	ActionSetReady    = "SET_READY"
	ActionFinishRound = "FINISH_ROUND"
	ActionRestartGame = "RESTART_GAME"
	ActionStartRound  = "START_ROUND"
	ActionEndGame     = "END_GAME"
)

var (
	ErrMalformedEvent     = errors.New("malformed event")
	ErrUnrecognizedAction = errors.New("unrecognized action")
)

// Text is a string field that also accepts a bare JSON number, since
// browser clients often send room ids as numbers.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*t = Text(n.String())
	return nil
}

// Score is a client-reported round score. Numeric strings are accepted.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("score %q: %w", raw, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("score %q is not finite", raw)
		}
		*s = Score(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = Score(f)
	return nil
}

// Inbound is a decoded client action.
type Inbound struct {
	Action string `json:"action"`
	Room   Text   `json:"room"`
	Name   Text   `json:"name"`
	Score  *Score `json:"score"`
}

// Decode parses and validates one client frame. The returned error wraps
// ErrMalformedEvent or ErrUnrecognizedAction.
func Decode(raw []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if in.Action == "" {
		return in, fmt.Errorf("%w: missing action", ErrMalformedEvent)
	}

	switch in.Action {
	case ActionJoinGame:
		if in.Room == "" || strings.TrimSpace(string(in.Name)) == "" {
			return in, fmt.Errorf("%w: %s requires room and name", ErrMalformedEvent, in.Action)
		}
	case ActionSetReady, ActionRestartGame:
		if in.Room == "" {
			return in, fmt.Errorf("%w: %s requires room", ErrMalformedEvent, in.Action)
		}
	case ActionFinishRound:
		if in.Room == "" || in.Score == nil {
			return in, fmt.Errorf("%w: %s requires room and score", ErrMalformedEvent, in.Action)
		}
	default:
		return in, fmt.Errorf("%w: %q", ErrUnrecognizedAction, in.Action)
	}
	return in, nil
}
