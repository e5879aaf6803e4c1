// Package habit は習慣管理のドメインロジックを提供する。
package habit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/habitmaster/internal/model"
	"github.com/hitoshi/habitmaster/internal/repository"
)

// dateLayout は完了日の表記（YYYY-MM-DD）。
const dateLayout = "2006-01-02"

// Progress は本日の進捗集計を表す。
type Progress struct {
	TotalHabits        int
	CompletedToday     int
	ProgressPercentage float64
}

// HabitStatus は完了/未完了一覧用の縮約された習慣情報。
// 所有者IDと作成日時は含まない。
type HabitStatus struct {
	ID   string
	Name string
	Time string
	Days []string
}

// StatusPartition はユーザーの習慣を本日完了済みと未完了に分割した結果。
type StatusPartition struct {
	Completed []HabitStatus
	Pending   []HabitStatus
}

// Service は習慣管理のサービス層。
// 「本日」はサーバーローカル日付で計算する。ユーザーごとのタイムゾーンは
// 受け付けない（既知の制約）。
type Service struct {
	habits repository.HabitRepository
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(habits repository.HabitRepository) *Service {
	return &Service{
		habits: habits,
		now:    time.Now,
	}
}

// today は本日のサーバーローカル日付をYYYY-MM-DD形式で返す。
func (s *Service) today() string {
	return s.now().Format(dateLayout)
}

// List はユーザーの習慣一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Habit, error) {
	habits, err := s.habits.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	return habits, nil
}

// Create は習慣を作成する。完了日集合は空で初期化する。
func (s *Service) Create(ctx context.Context, userID, name, timeOfDay string, days []string) (*model.Habit, error) {
	habit := &model.Habit{
		ID:             uuid.New().String(),
		Name:           name,
		Time:           timeOfDay,
		Days:           days,
		UserID:         userID,
		CreatedAt:      time.Now(),
		CompletedDates: []string{},
	}

	if err := s.habits.Create(ctx, habit); err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	slog.Info("habit created",
		slog.String("habit_id", habit.ID),
		slog.String("user_id", userID),
	)

	return habit, nil
}

// Complete は習慣を本日分として完了にする。
// 同一日の二重完了は集合追加の冪等性により自然に排除される。
// 追加が行われなかった場合、「習慣が存在しない」「所有者が異なる」
// 「本日完了済み」のいずれであっても同一のHABIT_NOT_FOUNDエラーを返す
// （意図的に区別しない）。
func (s *Service) Complete(ctx context.Context, userID, habitID string) error {
	added, err := s.habits.AddCompletionDate(ctx, habitID, userID, s.today())
	if err != nil {
		return fmt.Errorf("failed to complete habit: %w", err)
	}
	if !added {
		return model.NewHabitNotFoundError()
	}

	slog.Info("habit completed",
		slog.String("habit_id", habitID),
		slog.String("user_id", userID),
	)

	return nil
}

// Progress は本日の進捗集計を返す。
// 習慣が0件の場合は達成率0とする（ゼロ除算はしない）。
func (s *Service) Progress(ctx context.Context, userID string) (*Progress, error) {
	habits, err := s.habits.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	today := s.today()
	completedToday := 0
	for _, h := range habits {
		if h.CompletedOn(today) {
			completedToday++
		}
	}

	progress := &Progress{
		TotalHabits:    len(habits),
		CompletedToday: completedToday,
	}
	if progress.TotalHabits > 0 {
		progress.ProgressPercentage = float64(completedToday) / float64(progress.TotalHabits) * 100
	}

	return progress, nil
}

// CompletionStatus はユーザーの習慣を本日完了済みと未完了に分割して返す。
// 各リスト内の順序はストアの取得順に従う。
func (s *Service) CompletionStatus(ctx context.Context, userID string) (*StatusPartition, error) {
	habits, err := s.habits.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	today := s.today()
	partition := &StatusPartition{
		Completed: []HabitStatus{},
		Pending:   []HabitStatus{},
	}

	for _, h := range habits {
		status := HabitStatus{
			ID:   h.ID,
			Name: h.Name,
			Time: h.Time,
			Days: h.Days,
		}
		if h.CompletedOn(today) {
			partition.Completed = append(partition.Completed, status)
		} else {
			partition.Pending = append(partition.Pending, status)
		}
	}

	return partition, nil
}
