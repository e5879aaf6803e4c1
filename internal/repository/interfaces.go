// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/habitmaster/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailのUNIQUE制約違反はエラーとして返る。
	Create(ctx context.Context, user *model.User) error
}

// HabitRepository は習慣データの永続化インターフェース。
type HabitRepository interface {
	// ListByUserID はユーザーの習慣一覧を作成日時順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Habit, error)

	// Create は習慣を作成する。
	Create(ctx context.Context, habit *model.Habit) error

	// AddCompletionDate は指定日付を習慣の完了日集合に追加する。
	// id・所有者が一致し、かつ日付が未登録の場合のみ1文のUPDATEで追加する（アトミック）。
	// 実際に追加された場合はtrueを返す。習慣が存在しない・所有者が異なる・
	// 既に同日付が登録済みのいずれの場合もfalseを返し、原因は区別しない。
	AddCompletionDate(ctx context.Context, habitID, userID, date string) (bool, error)
}
