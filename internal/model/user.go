// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Passwordは常にbcryptハッシュを保持し、平文は永続化しない。
// Emailは全ユーザー間で一意。
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	DOB       string // 生年月日（YYYY-MM-DD）
	CreatedAt time.Time
}
