// Package marble parses and formats marble diagrams, the compact textual
// timelines used to describe reactive streams in tests.
//
// Syntax (one frame is one millisecond):
//
//	-          advance one frame
//	a          emit value "a" and advance one frame
//	(ab)       emit "a" and "b" in the same frame; the group advances
//	           one frame per character, parentheses included
//	10ms 2s 1m advance by a time span
//	|          complete
//	#          error
//	^          subscription point; frames are reported relative to it
//
// Whitespace is ignored. A run of digits that is not followed by a unit is
// read as single-character values.
package marble

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frame is the duration of one marble frame.
const Frame = time.Millisecond

// EventKind distinguishes the three notifications a stream can deliver.
type EventKind int

const (
	Next EventKind = iota + 1
	Complete
	Error
)

func (k EventKind) String() string {
	switch k {
	case Next:
		return "next"
	case Complete:
		return "complete"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one notification at a frame.
type Event struct {
	Frame int64
	Kind  EventKind
	Value string
}

// At returns the event's offset as a duration.
func (e Event) At() time.Duration { return time.Duration(e.Frame) * Frame }

func (e Event) String() string {
	if e.Kind == Next {
		return fmt.Sprintf("%d:%s", e.Frame, e.Value)
	}
	return fmt.Sprintf("%d:%s", e.Frame, e.Kind)
}

// SyntaxError reports a malformed diagram.
type SyntaxError struct {
	Diagram string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("marble %q at %d: %s", e.Diagram, e.Pos, e.Msg)
}

// Parse reads a diagram into its events, ordered by frame.
func Parse(diagram string) ([]Event, error) {
	var (
		events     []Event
		frame      int64
		group      int64 = -1
		subscribed int64
		seenSub    bool
		terminated bool
	)
	fail := func(pos int, msg string) error {
		return &SyntaxError{Diagram: diagram, Pos: pos, Msg: msg}
	}
	at := func() int64 {
		if group >= 0 {
			return group
		}
		return frame
	}

	for i := 0; i < len(diagram); i++ {
		c := diagram[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			continue
		case c == '-':
			frame++
			continue
		case c == '(':
			if group >= 0 {
				return nil, fail(i, "nested group")
			}
			group = frame
			frame++
			continue
		case c == ')':
			if group < 0 {
				return nil, fail(i, "unbalanced ')'")
			}
			group = -1
			frame++
			continue
		case c == '^':
			if seenSub {
				return nil, fail(i, "multiple subscription points")
			}
			seenSub = true
			subscribed = frame
			frame++
			continue
		case c >= '0' && c <= '9' && group < 0 && (i == 0 || diagram[i-1] == ' '):
			if span, n, ok := timeProgression(diagram[i:]); ok {
				frame += span
				i += n - 1
				continue
			}
		}

		if terminated {
			return nil, fail(i, "event after termination")
		}
		ev := Event{Frame: at(), Kind: Next, Value: string(c)}
		switch c {
		case '|':
			ev = Event{Frame: at(), Kind: Complete}
			terminated = true
		case '#':
			ev = Event{Frame: at(), Kind: Error}
			terminated = true
		}
		events = append(events, ev)
		frame++
	}
	if group >= 0 {
		return nil, fail(len(diagram), "unterminated group")
	}
	if subscribed != 0 {
		for i := range events {
			events[i].Frame -= subscribed
		}
	}
	return events, nil
}

// timeProgression reads a span such as "250ms" or "1.5s" at the start of s.
// The span must be followed by a space or the end of the diagram. It returns
// the span in frames and the number of bytes consumed.
func timeProgression(s string) (int64, int, bool) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	rest := s[end:]
	var unit time.Duration
	var ulen int
	switch {
	case strings.HasPrefix(rest, "ms"):
		unit, ulen = time.Millisecond, 2
	case strings.HasPrefix(rest, "s"):
		unit, ulen = time.Second, 1
	case strings.HasPrefix(rest, "m"):
		unit, ulen = time.Minute, 1
	default:
		return 0, 0, false
	}
	if end+ulen < len(s) && s[end+ulen] != ' ' {
		return 0, 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, 0, false
	}
	return int64(n * float64(unit) / float64(Frame)), end + ulen, true
}

// ErrUnrepresentable is returned by Format when events cannot be laid out
// on a single diagram, for example two values whose frames overlap a group.
var ErrUnrepresentable = errors.New("events cannot be drawn as a marble diagram")

// compressAfter is the shortest run of idle frames written as a time span.
const compressAfter = 8

// Format renders events as a diagram that Parse reads back to the same
// events. Values must be single characters. Long idle stretches are written
// as time spans.
func Format(events []Event) (string, error) {
	var b strings.Builder
	var cursor int64

	idle := func(n int64) {
		if n <= 0 {
			return
		}
		if n >= compressAfter {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%dms ", n)
			return
		}
		b.WriteString(strings.Repeat("-", int(n)))
	}

	for i := 0; i < len(events); {
		frame := events[i].Frame
		j := i
		for j < len(events) && events[j].Frame == frame {
			j++
		}
		if frame < cursor {
			return "", fmt.Errorf("%w: frame %d overlaps previous output", ErrUnrepresentable, frame)
		}
		idle(frame - cursor)

		same := events[i:j]
		var glyphs strings.Builder
		for _, ev := range same {
			g, err := glyph(ev)
			if err != nil {
				return "", err
			}
			glyphs.WriteString(g)
		}
		if len(same) == 1 {
			b.WriteString(glyphs.String())
			cursor = frame + 1
		} else {
			b.WriteString("(" + glyphs.String() + ")")
			cursor = frame + int64(len(same)) + 2
		}
		i = j
	}
	return strings.TrimSpace(b.String()), nil
}

func glyph(ev Event) (string, error) {
	switch ev.Kind {
	case Complete:
		return "|", nil
	case Error:
		return "#", nil
	}
	if len(ev.Value) != 1 || strings.ContainsAny(ev.Value, " -()^|#") {
		return "", fmt.Errorf("%w: value %q is not a single marble character", ErrUnrepresentable, ev.Value)
	}
	if ev.Value[0] >= '0' && ev.Value[0] <= '9' {
		return "", fmt.Errorf("%w: digit value %q reads as a time span", ErrUnrepresentable, ev.Value)
	}
	return ev.Value, nil
}
