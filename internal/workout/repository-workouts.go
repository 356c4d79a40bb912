package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/petrasession/internal/sqlite"
)

// SQLiteStore implements Store on the local SQLite database for single-node deployments.
type SQLiteStore struct {
	baseRepository
}

// NewSQLiteStore creates a Store backed by db.
func NewSQLiteStore(db *sqlite.Database, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{baseRepository: newBaseRepository(db, logger)}
}

// PlanDay returns the plan day or ErrNotFound.
func (r *SQLiteStore) PlanDay(ctx context.Context, planID, dayID string) (PlanDay, error) {
	var (
		day       = PlanDay{ID: "", PlanID: planID, DayNumber: 0, Name: "", Exercises: nil}
		exercises []byte
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, position, exercises
		FROM plan_days
		WHERE plan_id = ? AND id = ?`, planID, dayID).Scan(&day.ID, &day.Name, &day.DayNumber, &exercises)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanDay{}, ErrNotFound
	}
	if err != nil {
		return PlanDay{}, fmt.Errorf("query plan day: %w", err)
	}
	if err = json.Unmarshal(exercises, &day.Exercises); err != nil {
		return PlanDay{}, fmt.Errorf("unmarshal plan exercises: %w", err)
	}
	return day, nil
}

// ListPlans returns every plan with its days ordered by day number.
func (r *SQLiteStore) ListPlans(ctx context.Context) (_ []Plan, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT p.id, p.name, d.id, d.name, d.position, d.exercises
		FROM plans p
		LEFT JOIN plan_days d ON d.plan_id = p.id
		ORDER BY p.name, p.id, d.position`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	plans := []Plan{}
	for rows.Next() {
		var (
			planID, planName string
			dayID, dayName   sql.NullString
			position         sql.NullInt64
			exercises        []byte
		)
		if err = rows.Scan(&planID, &planName, &dayID, &dayName, &position, &exercises); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		if len(plans) == 0 || plans[len(plans)-1].ID != planID {
			plans = append(plans, Plan{ID: planID, Name: planName, Days: []PlanDay{}})
		}
		if !dayID.Valid {
			continue
		}
		day := PlanDay{
			ID:        dayID.String,
			PlanID:    planID,
			DayNumber: int(position.Int64),
			Name:      dayName.String,
			Exercises: nil,
		}
		if err = json.Unmarshal(exercises, &day.Exercises); err != nil {
			return nil, fmt.Errorf("unmarshal plan exercises: %w", err)
		}
		plans[len(plans)-1].Days = append(plans[len(plans)-1].Days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plans, nil
}

// CreatePlan inserts the plan and its days. It returns false without changes when the plan already exists so
// that weights progressed since the first import are kept.
func (r *SQLiteStore) CreatePlan(ctx context.Context, plan Plan) (bool, error) {
	created := false
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO plans (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`, plan.ID, plan.Name)
		if err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}
		created = true
		for _, day := range plan.Days {
			exercises, err := marshalPlanExercises(day.Exercises)
			if err != nil {
				return err
			}
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO plan_days (plan_id, id, name, position, exercises) VALUES (?, ?, ?, ?, ?)`,
				plan.ID, day.ID, day.Name, day.DayNumber, exercises); err != nil {
				return fmt.Errorf("insert plan day %s: %w", day.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("create plan %s: %w", plan.ID, err)
	}
	return created, nil
}

func marshalPlanExercises(exercises []PlanExercise) (string, error) {
	if exercises == nil {
		exercises = []PlanExercise{}
	}
	data, err := json.Marshal(exercises)
	if err != nil {
		return "", fmt.Errorf("marshal plan exercises: %w", err)
	}
	return string(data), nil
}

// UpdatePlanExerciseWeight patches the weightKg of a single element of the plan day's exercise array.
// It returns ErrNotFound when the plan day or the index does not exist.
func (r *SQLiteStore) UpdatePlanExerciseWeight(
	ctx context.Context,
	planID, dayID string,
	index int,
	weightKg float64,
) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE plan_days
		SET exercises = JSON_SET(exercises, '$[' || :index || '].weightKg', :weight)
		WHERE plan_id = :plan_id
		  AND id = :day_id
		  AND :index >= 0
		  AND :index < JSON_ARRAY_LENGTH(exercises)`,
		sql.Named("index", index),
		sql.Named("weight", weightKg),
		sql.Named("plan_id", planID),
		sql.Named("day_id", dayID))
	if err != nil {
		return fmt.Errorf("update plan exercise weight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveWorkout stores the record. Saving the same record id again overwrites it so that a retried finish
// does not create duplicates.
func (r *SQLiteStore) SaveWorkout(ctx context.Context, record WorkoutRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal workout record: %w", err)
	}
	if _, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workouts (id, plan_id, plan_day_id, name, date, started_at, duration_minutes, calories, record)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			duration_minutes = excluded.duration_minutes,
			calories = excluded.calories,
			record = excluded.record`,
		record.ID, record.PlanID, record.PlanDayID, record.Name, record.Date,
		formatTimestamp(record.StartedAt), record.DurationMinutes, record.CaloriesBurned, string(data)); err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

// LatestWorkout returns the most recently started workout of the plan day or ErrNotFound.
func (r *SQLiteStore) LatestWorkout(ctx context.Context, planID, dayID string) (WorkoutRecord, error) {
	var data []byte
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT record
		FROM workouts
		WHERE plan_id = ? AND plan_day_id = ?
		ORDER BY started_at DESC
		LIMIT 1`, planID, dayID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkoutRecord{}, ErrNotFound
	}
	if err != nil {
		return WorkoutRecord{}, fmt.Errorf("query latest workout: %w", err)
	}
	var record WorkoutRecord
	if err = json.Unmarshal(data, &record); err != nil {
		return WorkoutRecord{}, fmt.Errorf("unmarshal workout record: %w", err)
	}
	return record, nil
}
