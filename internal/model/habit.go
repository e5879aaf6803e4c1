package model

import "time"

// Habit はユーザーが登録した習慣を表す。
// CompletedDatesは完了日（YYYY-MM-DD、サーバーローカル日付）の集合で、
// 同一日付は高々1回しか現れない。完了操作によってのみ単調に増加する。
type Habit struct {
	ID             string
	Name           string
	Time           string   // 実施予定時刻（HH:MM）
	Days           []string // 実施予定曜日（"mon", "wed" 等）
	UserID         string
	CreatedAt      time.Time
	CompletedDates []string
}

// CompletedOn は指定日付（YYYY-MM-DD）に完了済みかどうかを返す。
func (h *Habit) CompletedOn(date string) bool {
	for _, d := range h.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}
