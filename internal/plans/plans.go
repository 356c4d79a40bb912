// Package plans reads training plans from YAML files and imports them into a store.
package plans

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/myrjola/petrasession/internal/errors"
	"github.com/myrjola/petrasession/internal/workout"
)

// File is the layout of a plan file.
//
//	plans:
//	  - id: full-body
//	    name: Full body
//	    days:
//	      - id: a
//	        dayNumber: 1
//	        name: Lower body
//	        exercises:
//	          - name: Squat
//	            sets: 3
//	            reps: "5"
//	            weightKg: 80
type File struct {
	Plans []workout.Plan `yaml:"plans"`
}

// Creator stores a plan unless it already exists.
type Creator interface {
	CreatePlan(ctx context.Context, plan workout.Plan) (bool, error)
}

// Load reads and validates the plan file at path.
func Load(path string) ([]workout.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open plan file", slog.String("path", path))
	}
	defer f.Close()
	plans, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "load plan file", slog.String("path", path))
	}
	return plans, nil
}

// Parse decodes and validates plans from r.
func Parse(r io.Reader) ([]workout.Plan, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse plans")
	}
	if err := validate(file.Plans); err != nil {
		return nil, err
	}
	for i := range file.Plans {
		for j := range file.Plans[i].Days {
			day := &file.Plans[i].Days[j]
			day.PlanID = file.Plans[i].ID
			if day.DayNumber == 0 {
				day.DayNumber = j + 1
			}
			if day.Exercises == nil {
				day.Exercises = []workout.PlanExercise{}
			}
		}
	}
	return file.Plans, nil
}

func validate(plans []workout.Plan) error {
	planIDs := make(map[string]bool, len(plans))
	for i, p := range plans {
		if p.ID == "" {
			return errors.New("plan without id", slog.Int("plan", i))
		}
		if planIDs[p.ID] {
			return errors.New("duplicate plan id", slog.String("plan_id", p.ID))
		}
		planIDs[p.ID] = true

		dayIDs := make(map[string]bool, len(p.Days))
		for j, d := range p.Days {
			if d.ID == "" {
				return errors.New("plan day without id", slog.String("plan_id", p.ID), slog.Int("day", j))
			}
			if dayIDs[d.ID] {
				return errors.New("duplicate plan day id", slog.String("plan_id", p.ID), slog.String("day_id", d.ID))
			}
			dayIDs[d.ID] = true
			for k, e := range d.Exercises {
				if e.Name == "" {
					return errors.New("plan exercise without name",
						slog.String("plan_id", p.ID), slog.String("day_id", d.ID), slog.Int("exercise", k))
				}
				if e.Sets != nil && *e.Sets < 0 {
					return errors.New("negative set count",
						slog.String("plan_id", p.ID), slog.String("day_id", d.ID), slog.String("exercise", e.Name))
				}
			}
		}
	}
	return nil
}

// Import creates the plans that do not exist yet. Existing plans are left untouched so that weight progressions
// made since the previous import survive a restart.
func Import(ctx context.Context, c Creator, plans []workout.Plan, logger *slog.Logger) (int, error) {
	created := 0
	for _, p := range plans {
		ok, err := c.CreatePlan(ctx, p)
		if err != nil {
			return created, fmt.Errorf("import plan %s: %w", p.ID, err)
		}
		if ok {
			created++
			logger.LogAttrs(ctx, slog.LevelInfo, "imported plan",
				slog.String("plan_id", p.ID), slog.Int("days", len(p.Days)))
		}
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "plan import done",
		slog.Int("created", created), slog.Int("skipped", len(plans)-created))
	return created, nil
}
