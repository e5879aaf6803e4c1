package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/habitmaster/internal/model"
	"github.com/lib/pq"
)

// PostgresHabitRepo はPostgreSQLを使用した習慣リポジトリ。
// 完了日集合はjsonb配列として1カラムに保持する。
type PostgresHabitRepo struct {
	db *sql.DB
}

// NewPostgresHabitRepo はPostgresHabitRepoを生成する。
func NewPostgresHabitRepo(db *sql.DB) *PostgresHabitRepo {
	return &PostgresHabitRepo{db: db}
}

// ListByUserID はユーザーの習慣一覧を作成日時順で返す。
func (r *PostgresHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, time, days, user_id, created_at, completed_dates
		 FROM habits
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*model.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}

	return habits, nil
}

// Create は習慣を作成する。
func (r *PostgresHabitRepo) Create(ctx context.Context, habit *model.Habit) error {
	completedDates := habit.CompletedDates
	if completedDates == nil {
		completedDates = []string{}
	}
	datesJSON, err := json.Marshal(completedDates)
	if err != nil {
		return fmt.Errorf("failed to encode completed dates: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO habits (id, name, time, days, user_id, created_at, completed_dates)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		habit.ID, habit.Name, habit.Time, pq.Array(habit.Days),
		habit.UserID, habit.CreatedAt, datesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}
	return nil
}

// AddCompletionDate は指定日付を習慣の完了日集合に追加する。
// id・所有者の一致と日付の未登録をWHERE句で同時に検査する1文のUPDATEのため、
// 同一習慣への並行リクエストでも同日付が二重登録されることはない。
// 更新行数0は「存在しない・所有者が異なる・登録済み」のいずれかを意味し、区別しない。
func (r *PostgresHabitRepo) AddCompletionDate(ctx context.Context, habitID, userID, date string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE habits
		 SET completed_dates = completed_dates || to_jsonb($3::text)
		 WHERE id = $1 AND user_id = $2 AND NOT completed_dates ? $3`,
		habitID, userID, date,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add completion date: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// scanHabit は1行分の習慣レコードを読み取る。
func scanHabit(rows *sql.Rows) (*model.Habit, error) {
	habit := &model.Habit{}
	var datesJSON []byte

	err := rows.Scan(
		&habit.ID, &habit.Name, &habit.Time, pq.Array(&habit.Days),
		&habit.UserID, &habit.CreatedAt, &datesJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}

	if err := json.Unmarshal(datesJSON, &habit.CompletedDates); err != nil {
		return nil, fmt.Errorf("failed to decode completed dates: %w", err)
	}

	return habit, nil
}

// compile-time interface check
var _ HabitRepository = (*PostgresHabitRepo)(nil)
