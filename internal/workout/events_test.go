package workout_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/petrasession/internal/ptr"
	"github.com/myrjola/petrasession/internal/workout"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  workout.Event
	}{
		{
			name:  "log set with weight",
			input: `{"type":"LOG_SET","exerciseIndex":1,"setIndex":2,"reps":8,"weightKg":82.5}`,
			want:  workout.LogSet{ExerciseIndex: 1, SetIndex: 2, Reps: 8, WeightKg: ptr.Ref(82.5)},
		},
		{
			name:  "event without payload",
			input: `{"type":"NEXT_EXERCISE"}`,
			want:  workout.NextExercise{},
		},
		{
			name:  "set phase",
			input: `{"type":"SET_PHASE","phase":"exercise"}`,
			want:  workout.SetPhase{Phase: workout.PhaseExercise},
		},
		{
			name:  "log warmup",
			input: `{"type":"LOG_WARMUP","warmup":{"description":"Rowing","durationMinutes":5}}`,
			want:  workout.LogWarmup{Warmup: workout.WarmupResult{Description: "Rowing", DurationMinutes: 5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workout.DecodeEvent([]byte(tt.input))
			if err != nil {
				t.Fatalf("Failed to decode event: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeEvent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeEvent_errors(t *testing.T) {
	if _, err := workout.DecodeEvent([]byte(`{"type":"DANCE"}`)); !errors.Is(err, workout.ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
	if _, err := workout.DecodeEvent([]byte(`{"type":`)); err == nil {
		t.Error("Expected error for malformed envelope")
	}
	if _, err := workout.DecodeEvent([]byte(`{"type":"GO_TO_EXERCISE","index":"two"}`)); err == nil {
		t.Error("Expected error for malformed payload")
	}
}

func TestEncodeEvent(t *testing.T) {
	events := []workout.Event{
		workout.SkipWarmup{},
		workout.LogSet{ExerciseIndex: 0, SetIndex: 1, Reps: 5, Notes: ptr.Ref("felt easy")},
		workout.RemoveExercise{Index: 3},
		workout.SetTimerSeconds{Seconds: 150},
		workout.AddExercise{Exercise: workout.ExerciseResult{
			Name: "Face Pull",
			Sets: []workout.SetResult{{SetNumber: 1, TargetReps: "15"}},
		}},
	}
	for _, e := range events {
		t.Run(string(e.Type()), func(t *testing.T) {
			data, err := workout.EncodeEvent(e)
			if err != nil {
				t.Fatalf("Failed to encode event: %v", err)
			}
			got, err := workout.DecodeEvent(data)
			if err != nil {
				t.Fatalf("Failed to decode %s: %v", data, err)
			}
			if diff := cmp.Diff(e, got); diff != "" {
				t.Errorf("Event changed over the wire (-want +got):\n%s", diff)
			}
		})
	}
}
