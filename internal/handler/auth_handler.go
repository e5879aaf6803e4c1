// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/hitoshi/habitmaster/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, username, email, dob, password string) (*model.User, error)
	// Login は認証情報を検証しベアラートークンを発行する。
	Login(ctx context.Context, email, password string) (string, *model.User, error)
}

// RegistrationRecorder はユーザー登録メトリクスの記録インターフェース。
type RegistrationRecorder interface {
	RecordRegistration()
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics RegistrationRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics RegistrationRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	DOB      string `json:"dob"`
	Password string `json:"password"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userSummaryResponse はログインレスポンスに含めるユーザー概要。
type userSummaryResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// loginResponse はログインレスポンスのボディ。
type loginResponse struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	User        userSummaryResponse `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディを解析できません"))
		return
	}

	if err := validateRegisterRequest(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.DOB, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

// Login はログインを処理する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディを解析できません"))
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User: userSummaryResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

// validateRegisterRequest は登録リクエストの入力検証を行う。
func validateRegisterRequest(req *registerRequest) *model.APIError {
	if req.Username == "" {
		return model.NewValidationError("ユーザー名は必須です")
	}
	if req.Email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if req.DOB == "" {
		return model.NewValidationError("生年月日は必須です")
	}
	if req.Password == "" {
		return model.NewValidationError("パスワードは必須です")
	}
	return nil
}
