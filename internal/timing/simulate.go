package timing

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/epicflow/internal/marble"
)

// Timed is a value at an offset from the start of a virtual timeline.
type Timed[T any] struct {
	At    time.Duration
	Value T
}

// Timeline is a finite virtual-time stream.
type Timeline[T any] struct {
	Items []Timed[T]
	// End is when the stream terminates. It is meaningful only when Ended
	// is set; an unterminated timeline stays open forever.
	End    time.Duration
	Ended  bool
	Failed bool
}

var epoch = time.Unix(0, 0).UTC()

// Simulate feeds in through l on a virtual clock and returns the output
// timeline. l must be fresh.
//
// An error terminates the output at the same instant and discards anything
// pending, as an upstream error would.
func Simulate[T any](l Limiter[T], in Timeline[T]) Timeline[T] {
	var out Timeline[T]
	emit := func(at time.Time, v T) {
		out.Items = append(out.Items, Timed[T]{At: at.Sub(epoch), Value: v})
	}

	items := slices.Clone(in.Items)
	slices.SortStableFunc(items, func(a, b Timed[T]) int { return cmp.Compare(a.At, b.At) })

	for _, it := range items {
		if in.Ended && it.At > in.End {
			break
		}
		now := epoch.Add(it.At)
		catchUp(l, now, emit)
		if v, ok := l.Push(now, it.Value); ok {
			emit(now, v)
		}
	}

	if !in.Ended {
		for {
			d, ok := l.Deadline()
			if !ok {
				break
			}
			if v, ok := l.Expire(); ok {
				emit(d, v)
			}
		}
		return out
	}

	end := epoch.Add(in.End)
	catchUp(l, end, emit)
	out.Ended = true
	if in.Failed {
		out.Failed = true
		out.End = in.End
		return out
	}
	at, v, ok := l.Flush(end)
	if ok {
		emit(at, v)
	}
	out.End = at.Sub(epoch)
	return out
}

// FromMarble converts a marble diagram into a timeline of single-character
// values.
func FromMarble(diagram string) (Timeline[string], error) {
	events, err := marble.Parse(diagram)
	if err != nil {
		return Timeline[string]{}, err
	}
	var tl Timeline[string]
	for _, ev := range events {
		switch ev.Kind {
		case marble.Next:
			tl.Items = append(tl.Items, Timed[string]{At: ev.At(), Value: ev.Value})
		case marble.Complete:
			tl.End, tl.Ended = ev.At(), true
		case marble.Error:
			tl.End, tl.Ended, tl.Failed = ev.At(), true, true
		}
	}
	return tl, nil
}

// Events converts the timeline back into marble events.
func (tl Timeline[T]) Events() []marble.Event {
	events := make([]marble.Event, 0, len(tl.Items)+1)
	for _, it := range tl.Items {
		events = append(events, marble.Event{
			Frame: int64(it.At / marble.Frame),
			Kind:  marble.Next,
			Value: fmt.Sprint(it.Value),
		})
	}
	if tl.Ended {
		kind := marble.Complete
		if tl.Failed {
			kind = marble.Error
		}
		events = append(events, marble.Event{Frame: int64(tl.End / marble.Frame), Kind: kind})
	}
	return events
}

// Marble renders the timeline as a diagram.
func (tl Timeline[T]) Marble() (string, error) {
	return marble.Format(tl.Events())
}
