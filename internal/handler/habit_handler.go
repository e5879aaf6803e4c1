package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/habitmaster/internal/habit"
	"github.com/hitoshi/habitmaster/internal/middleware"
	"github.com/hitoshi/habitmaster/internal/model"
)

// HabitServiceInterface は習慣ハンドラーが必要とするサービスインターフェース。
type HabitServiceInterface interface {
	// List はユーザーの習慣一覧を返す。
	List(ctx context.Context, userID string) ([]*model.Habit, error)
	// Create は習慣を作成する。
	Create(ctx context.Context, userID, name, timeOfDay string, days []string) (*model.Habit, error)
	// Complete は習慣を本日分として完了にする。
	Complete(ctx context.Context, userID, habitID string) error
	// Progress は本日の進捗集計を返す。
	Progress(ctx context.Context, userID string) (*habit.Progress, error)
	// CompletionStatus は習慣を本日完了済みと未完了に分割して返す。
	CompletionStatus(ctx context.Context, userID string) (*habit.StatusPartition, error)
}

// CompletionRecorder は習慣完了メトリクスの記録インターフェース。
type CompletionRecorder interface {
	RecordCompletion()
}

// HabitHandler は習慣管理のHTTPハンドラー。
type HabitHandler struct {
	service HabitServiceInterface
	metrics CompletionRecorder
}

// NewHabitHandler はHabitHandlerを生成する。
func NewHabitHandler(service HabitServiceInterface, metrics CompletionRecorder) *HabitHandler {
	return &HabitHandler{
		service: service,
		metrics: metrics,
	}
}

// createHabitRequest は習慣作成リクエストのボディ。
type createHabitRequest struct {
	Name string   `json:"name"`
	Time string   `json:"time"`
	Days []string `json:"days"`
}

// completeHabitRequest は習慣完了リクエストのボディ。
type completeHabitRequest struct {
	HabitID string `json:"habit_id"`
}

// habitResponse は習慣情報のAPIレスポンス。
type habitResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Time      string    `json:"time"`
	Days      []string  `json:"days"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// habitStatusResponse は完了/未完了一覧用の縮約された習慣レスポンス。
type habitStatusResponse struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Time string   `json:"time"`
	Days []string `json:"days"`
}

// completionStatusResponse は完了/未完了一覧レスポンスのボディ。
type completionStatusResponse struct {
	Completed []habitStatusResponse `json:"completed"`
	Pending   []habitStatusResponse `json:"pending"`
}

// progressResponse は進捗集計レスポンスのボディ。
type progressResponse struct {
	TotalHabits        int     `json:"total_habits"`
	CompletedToday     int     `json:"completed_today"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// ListHabits はユーザーの習慣一覧を返す。
// GET /api/habits
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	habits, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]habitResponse, len(habits))
	for i, hb := range habits {
		responses[i] = toHabitResponse(hb)
	}

	writeJSONResponse(w, http.StatusOK, responses)
}

// CreateHabit は習慣を作成する。
// POST /api/habits
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディを解析できません"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("習慣名は必須です"))
		return
	}

	created, err := h.service.Create(r.Context(), user.ID, req.Name, req.Time, req.Days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message":  "Habit created successfully",
		"habit_id": created.ID,
	})
}

// CompleteHabit は習慣を本日分として完了にする。
// POST /api/complete-habit
func (h *HabitHandler) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req completeHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディを解析できません"))
		return
	}
	if req.HabitID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("習慣IDは必須です"))
		return
	}

	if err := h.service.Complete(r.Context(), user.ID, req.HabitID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCompletion()
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Habit marked as completed",
	})
}

// CompletionStatus は習慣を本日完了済みと未完了に分割して返す。
// GET /api/completed-habits
func (h *HabitHandler) CompletionStatus(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	partition, err := h.service.CompletionStatus(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, completionStatusResponse{
		Completed: toStatusResponses(partition.Completed),
		Pending:   toStatusResponses(partition.Pending),
	})
}

// Progress は本日の進捗集計を返す。
// GET /api/progress
func (h *HabitHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	progress, err := h.service.Progress(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, progressResponse{
		TotalHabits:        progress.TotalHabits,
		CompletedToday:     progress.CompletedToday,
		ProgressPercentage: progress.ProgressPercentage,
	})
}

// --- ヘルパー関数 ---

// toHabitResponse はmodel.HabitからAPIレスポンスに変換する。
func toHabitResponse(h *model.Habit) habitResponse {
	days := h.Days
	if days == nil {
		days = []string{}
	}
	return habitResponse{
		ID:        h.ID,
		Name:      h.Name,
		Time:      h.Time,
		Days:      days,
		UserID:    h.UserID,
		CreatedAt: h.CreatedAt,
	}
}

// toStatusResponses は縮約された習慣情報のスライスをAPIレスポンスに変換する。
func toStatusResponses(statuses []habit.HabitStatus) []habitStatusResponse {
	responses := make([]habitStatusResponse, len(statuses))
	for i, s := range statuses {
		days := s.Days
		if days == nil {
			days = []string{}
		}
		responses[i] = habitStatusResponse{
			ID:   s.ID,
			Name: s.Name,
			Time: s.Time,
			Days: days,
		}
	}
	return responses
}
