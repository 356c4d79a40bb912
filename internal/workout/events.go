package workout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/petrasession/internal/errors"
)

// EventType is the wire name of an event.
type EventType string

const (
	EventStartSession    EventType = "START_SESSION"
	EventLogWarmup       EventType = "LOG_WARMUP"
	EventSkipWarmup      EventType = "SKIP_WARMUP"
	EventLogSet          EventType = "LOG_SET"
	EventSkipSet         EventType = "SKIP_SET"
	EventNextExercise    EventType = "NEXT_EXERCISE"
	EventPrevExercise    EventType = "PREV_EXERCISE"
	EventGoToExercise    EventType = "GO_TO_EXERCISE"
	EventSkipExercise    EventType = "SKIP_EXERCISE"
	EventRemoveExercise  EventType = "REMOVE_EXERCISE"
	EventAddExercise     EventType = "ADD_EXERCISE"
	EventToggleMode      EventType = "TOGGLE_MODE"
	EventToggleTimer     EventType = "TOGGLE_TIMER"
	EventSetTimerSeconds EventType = "SET_TIMER_SECONDS"
	EventSetPhase        EventType = "SET_PHASE"
	EventFinishSession   EventType = "FINISH_SESSION"
	EventRestoreSession  EventType = "RESTORE_SESSION"
	EventClearSession    EventType = "CLEAR_SESSION"
)

// Event is a transition of the session state machine.
type Event interface {
	Type() EventType
}

// StartSession builds a fresh session from a plan day. StartedAt is stamped by the caller so that [Apply] stays pure.
type StartSession struct {
	PlanID    string    `json:"planId"`
	PlanDay   PlanDay   `json:"planDay"`
	StartedAt time.Time `json:"startedAt"`
}

type LogWarmup struct {
	Warmup WarmupResult `json:"warmup"`
}

type SkipWarmup struct{}

// LogSet completes a set. A nil WeightKg records the target weight of the set.
type LogSet struct {
	ExerciseIndex int      `json:"exerciseIndex"`
	SetIndex      int      `json:"setIndex"`
	Reps          int      `json:"reps"`
	WeightKg      *float64 `json:"weightKg,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

type SkipSet struct {
	ExerciseIndex int `json:"exerciseIndex"`
	SetIndex      int `json:"setIndex"`
}

type NextExercise struct{}

type PrevExercise struct{}

type GoToExercise struct {
	Index int `json:"index"`
}

type SkipExercise struct {
	Index int `json:"index"`
}

type RemoveExercise struct {
	Index int `json:"index"`
}

type AddExercise struct {
	Exercise ExerciseResult `json:"exercise"`
}

type ToggleMode struct{}

type ToggleTimer struct{}

type SetTimerSeconds struct {
	Seconds int `json:"seconds"`
}

// SetPhase overrides the phase without moving any cursor, e.g. to leave the rest phase early.
type SetPhase struct {
	Phase Phase `json:"phase"`
}

type FinishSession struct{}

// RestoreSession replaces the whole state with a snapshot.
type RestoreSession struct {
	Snapshot State `json:"snapshot"`
}

type ClearSession struct{}

func (StartSession) Type() EventType    { return EventStartSession }
func (LogWarmup) Type() EventType       { return EventLogWarmup }
func (SkipWarmup) Type() EventType      { return EventSkipWarmup }
func (LogSet) Type() EventType          { return EventLogSet }
func (SkipSet) Type() EventType         { return EventSkipSet }
func (NextExercise) Type() EventType    { return EventNextExercise }
func (PrevExercise) Type() EventType    { return EventPrevExercise }
func (GoToExercise) Type() EventType    { return EventGoToExercise }
func (SkipExercise) Type() EventType    { return EventSkipExercise }
func (RemoveExercise) Type() EventType  { return EventRemoveExercise }
func (AddExercise) Type() EventType     { return EventAddExercise }
func (ToggleMode) Type() EventType      { return EventToggleMode }
func (ToggleTimer) Type() EventType     { return EventToggleTimer }
func (SetTimerSeconds) Type() EventType { return EventSetTimerSeconds }
func (SetPhase) Type() EventType        { return EventSetPhase }
func (FinishSession) Type() EventType   { return EventFinishSession }
func (RestoreSession) Type() EventType  { return EventRestoreSession }
func (ClearSession) Type() EventType    { return EventClearSession }

// newEvent returns a pointer to the zero value of the event named t.
func newEvent(t EventType) (Event, bool) {
	var e Event
	switch t {
	case EventStartSession:
		e = &StartSession{}
	case EventLogWarmup:
		e = &LogWarmup{}
	case EventSkipWarmup:
		e = &SkipWarmup{}
	case EventLogSet:
		e = &LogSet{}
	case EventSkipSet:
		e = &SkipSet{}
	case EventNextExercise:
		e = &NextExercise{}
	case EventPrevExercise:
		e = &PrevExercise{}
	case EventGoToExercise:
		e = &GoToExercise{}
	case EventSkipExercise:
		e = &SkipExercise{}
	case EventRemoveExercise:
		e = &RemoveExercise{}
	case EventAddExercise:
		e = &AddExercise{}
	case EventToggleMode:
		e = &ToggleMode{}
	case EventToggleTimer:
		e = &ToggleTimer{}
	case EventSetTimerSeconds:
		e = &SetTimerSeconds{}
	case EventSetPhase:
		e = &SetPhase{}
	case EventFinishSession:
		e = &FinishSession{}
	case EventRestoreSession:
		e = &RestoreSession{}
	case EventClearSession:
		e = &ClearSession{}
	default:
		return nil, false
	}
	return e, true
}

// DecodeEvent parses an event envelope such as {"type":"LOG_SET","exerciseIndex":0,"setIndex":1,"reps":8}.
//
// The returned event is a value, not a pointer, so it can be passed to [Apply] directly.
func DecodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrap(err, "unmarshal event envelope")
	}
	target, ok := newEvent(envelope.Type)
	if !ok {
		return nil, errors.Wrap(ErrUnknownEvent, "decode event", slog.String("type", string(envelope.Type)))
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, errors.Wrap(err, "unmarshal event", slog.String("type", string(envelope.Type)))
	}
	return deref(target), nil
}

// EncodeEvent is the inverse of [DecodeEvent].
func EncodeEvent(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshal event", slog.String("type", string(e.Type())))
	}
	typ, err := json.Marshal(e.Type())
	if err != nil {
		return nil, errors.Wrap(err, "marshal event type")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if fields := bytes.TrimSpace(body[1 : len(body)-1]); len(fields) > 0 {
		buf.WriteByte(',')
		buf.Write(fields)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func deref(e Event) Event {
	switch v := e.(type) {
	case *StartSession:
		return *v
	case *LogWarmup:
		return *v
	case *SkipWarmup:
		return *v
	case *LogSet:
		return *v
	case *SkipSet:
		return *v
	case *NextExercise:
		return *v
	case *PrevExercise:
		return *v
	case *GoToExercise:
		return *v
	case *SkipExercise:
		return *v
	case *RemoveExercise:
		return *v
	case *AddExercise:
		return *v
	case *ToggleMode:
		return *v
	case *ToggleTimer:
		return *v
	case *SetTimerSeconds:
		return *v
	case *SetPhase:
		return *v
	case *FinishSession:
		return *v
	case *RestoreSession:
		return *v
	case *ClearSession:
		return *v
	default:
		panic(fmt.Sprintf("workout: unexpected event %T", e))
	}
}
