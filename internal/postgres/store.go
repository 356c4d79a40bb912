package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/myrjola/petrasession/internal/workout"
)

// PlanDay returns the plan day or workout.ErrNotFound.
func (db *DB) PlanDay(ctx context.Context, planID, dayID string) (workout.PlanDay, error) {
	var (
		day       = workout.PlanDay{ID: "", PlanID: planID, DayNumber: 0, Name: "", Exercises: nil}
		exercises []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, position, exercises FROM plan_days WHERE plan_id = $1 AND id = $2`,
		planID, dayID).Scan(&day.ID, &day.Name, &day.DayNumber, &exercises)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.PlanDay{}, workout.ErrNotFound
	}
	if err != nil {
		return workout.PlanDay{}, fmt.Errorf("querying plan day: %w", err)
	}
	if err = json.Unmarshal(exercises, &day.Exercises); err != nil {
		return workout.PlanDay{}, fmt.Errorf("unmarshaling plan exercises: %w", err)
	}
	return day, nil
}

// ListPlans returns every plan with its days ordered by day number.
func (db *DB) ListPlans(ctx context.Context) ([]workout.Plan, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT p.id, p.name, d.id, d.name, d.position, d.exercises
		FROM plans p
		LEFT JOIN plan_days d ON d.plan_id = p.id
		ORDER BY p.name, p.id, d.position`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []workout.Plan{}
	for rows.Next() {
		var (
			planID, planName string
			dayID, dayName   *string
			position         *int
			exercises        []byte
		)
		if err = rows.Scan(&planID, &planName, &dayID, &dayName, &position, &exercises); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		if len(plans) == 0 || plans[len(plans)-1].ID != planID {
			plans = append(plans, workout.Plan{ID: planID, Name: planName, Days: []workout.PlanDay{}})
		}
		if dayID == nil {
			continue
		}
		day := workout.PlanDay{ID: *dayID, PlanID: planID, DayNumber: *position, Name: *dayName, Exercises: nil}
		if err = json.Unmarshal(exercises, &day.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshaling plan exercises: %w", err)
		}
		plans[len(plans)-1].Days = append(plans[len(plans)-1].Days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// CreatePlan inserts the plan and its days. Returns true if inserted, false if the plan already exists.
func (db *DB) CreatePlan(ctx context.Context, plan workout.Plan) (bool, error) {
	created := false
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO plans (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, plan.ID, plan.Name)
		if err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		created = true
		for _, day := range plan.Days {
			exercises := day.Exercises
			if exercises == nil {
				exercises = []workout.PlanExercise{}
			}
			data, err := json.Marshal(exercises)
			if err != nil {
				return fmt.Errorf("marshaling plan exercises: %w", err)
			}
			if _, err = tx.Exec(ctx,
				`INSERT INTO plan_days (plan_id, id, name, position, exercises) VALUES ($1, $2, $3, $4, $5)`,
				plan.ID, day.ID, day.Name, day.DayNumber, string(data)); err != nil {
				return fmt.Errorf("inserting plan day %s: %w", day.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("creating plan %s: %w", plan.ID, err)
	}
	return created, nil
}

// UpdatePlanExerciseWeight patches the weightKg of one element of the plan day's exercise array.
func (db *DB) UpdatePlanExerciseWeight(ctx context.Context, planID, dayID string, index int, weightKg float64) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE plan_days
		SET exercises = jsonb_set(exercises, ARRAY[$3::int::text, 'weightKg'], to_jsonb($4::float8))
		WHERE plan_id = $1
		  AND id = $2
		  AND $3::int >= 0
		  AND $3::int < jsonb_array_length(exercises)`,
		planID, dayID, index, weightKg)
	if err != nil {
		return fmt.Errorf("updating plan exercise weight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workout.ErrNotFound
	}
	return nil
}

// SaveWorkout upserts the record by id so that a retried finish overwrites the earlier attempt.
func (db *DB) SaveWorkout(ctx context.Context, record workout.WorkoutRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling workout record: %w", err)
	}
	if _, err = db.Pool.Exec(ctx, `
		INSERT INTO workouts (id, plan_id, plan_day_id, name, date, started_at, duration_minutes, calories, record)
		VALUES ($1::text::uuid, NULLIF($2, ''), NULLIF($3, ''), $4, $5::text::date, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			duration_minutes = excluded.duration_minutes,
			calories = excluded.calories,
			record = excluded.record`,
		record.ID, record.PlanID, record.PlanDayID, record.Name, record.Date, record.StartedAt,
		record.DurationMinutes, record.CaloriesBurned, string(data)); err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// LatestWorkout returns the most recently started workout of the plan day or workout.ErrNotFound.
func (db *DB) LatestWorkout(ctx context.Context, planID, dayID string) (workout.WorkoutRecord, error) {
	var data []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT record
		FROM workouts
		WHERE plan_id = $1 AND plan_day_id = $2
		ORDER BY started_at DESC
		LIMIT 1`, planID, dayID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.WorkoutRecord{}, workout.ErrNotFound
	}
	if err != nil {
		return workout.WorkoutRecord{}, fmt.Errorf("querying latest workout: %w", err)
	}
	var record workout.WorkoutRecord
	if err = json.Unmarshal(data, &record); err != nil {
		return workout.WorkoutRecord{}, fmt.Errorf("unmarshaling workout record: %w", err)
	}
	return record, nil
}
