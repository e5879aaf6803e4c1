package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/habitmaster/internal/model"
	"github.com/hitoshi/habitmaster/internal/repository"
)

// TokenProvider はトークンの発行・検証インターフェース。
type TokenProvider interface {
	// Issue は指定メールアドレスをsubjectとするトークンを発行する。
	Issue(email string) (string, error)
	// Verify はトークンを検証しsubject（メールアドレス）を返す。
	Verify(tokenString string) (string, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users  repository.UserRepository
	tokens TokenProvider
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens TokenProvider) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが既に使用されている場合はEMAIL_TAKENエラーを返す。
// パスワードはbcryptハッシュとして保存する。
func (s *Service) Register(ctx context.Context, username, email, dob, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Password:  hash,
		DOB:       dob,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login はメールアドレスとパスワードを検証し、ベアラートークンを発行する。
// ユーザー不在とパスワード不一致は区別せず、同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !VerifyPassword(user.Password, password) {
		return "", nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return token, user, nil
}

// ResolveToken はベアラートークンから認証済みユーザーを解決する。
// すべての保護された操作の前提条件となる認証ゲート。
// 署名不正・期限切れ・subject欠落・ユーザー不在のいずれの場合も
// 原因を区別せずUNAUTHORIZEDエラーを返す。副作用はない。
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}
