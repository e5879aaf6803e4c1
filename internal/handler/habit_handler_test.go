package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/habitmaster/internal/habit"
	"github.com/hitoshi/habitmaster/internal/middleware"
	"github.com/hitoshi/habitmaster/internal/model"
)

type mockHabitService struct {
	listFn             func(ctx context.Context, userID string) ([]*model.Habit, error)
	createFn           func(ctx context.Context, userID, name, timeOfDay string, days []string) (*model.Habit, error)
	completeFn         func(ctx context.Context, userID, habitID string) error
	progressFn         func(ctx context.Context, userID string) (*habit.Progress, error)
	completionStatusFn func(ctx context.Context, userID string) (*habit.StatusPartition, error)
}

func (m *mockHabitService) List(ctx context.Context, userID string) ([]*model.Habit, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockHabitService) Create(ctx context.Context, userID, name, timeOfDay string, days []string) (*model.Habit, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, name, timeOfDay, days)
	}
	return &model.Habit{ID: "habit-1"}, nil
}

func (m *mockHabitService) Complete(ctx context.Context, userID, habitID string) error {
	if m.completeFn != nil {
		return m.completeFn(ctx, userID, habitID)
	}
	return nil
}

func (m *mockHabitService) Progress(ctx context.Context, userID string) (*habit.Progress, error) {
	if m.progressFn != nil {
		return m.progressFn(ctx, userID)
	}
	return &habit.Progress{}, nil
}

func (m *mockHabitService) CompletionStatus(ctx context.Context, userID string) (*habit.StatusPartition, error) {
	if m.completionStatusFn != nil {
		return m.completionStatusFn(ctx, userID)
	}
	return &habit.StatusPartition{Completed: []habit.HabitStatus{}, Pending: []habit.HabitStatus{}}, nil
}

// authedJSONRequest は認証済みユーザーをコンテキストに持つリクエストを生成する。
func authedJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.ContextWithUser(req.Context(), &model.User{ID: "user-1", Email: "alice@x.com"})
	return req.WithContext(ctx)
}

func TestHabitHandler_ListHabits(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &mockHabitService{
		listFn: func(ctx context.Context, userID string) ([]*model.Habit, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return []*model.Habit{
				{ID: "h1", Name: "読書", Time: "21:00", Days: []string{"Mon"}, UserID: userID, CreatedAt: createdAt},
			}, nil
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.ListHabits(rec, authedJSONRequest(t, http.MethodGet, "/api/habits", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var habits []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &habits); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("len(habits) = %d, want 1", len(habits))
	}
	got := habits[0]
	if got["id"] != "h1" || got["name"] != "読書" || got["time"] != "21:00" || got["user_id"] != "user-1" {
		t.Errorf("habit = %v, fields mismatch", got)
	}
	// 完了日集合はレスポンスに含めない
	if _, ok := got["completed_dates"]; ok {
		t.Error("completed_dates must not appear in the list response")
	}
}

func TestHabitHandler_ListHabits_Unauthenticated(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	rec := httptest.NewRecorder()
	h.ListHabits(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHabitHandler_CreateHabit_Success(t *testing.T) {
	svc := &mockHabitService{
		createFn: func(ctx context.Context, userID, name, timeOfDay string, days []string) (*model.Habit, error) {
			if name != "読書" || timeOfDay != "21:00" {
				t.Errorf("Create called with (%q, %q)", name, timeOfDay)
			}
			return &model.Habit{ID: "habit-1", Name: name, Time: timeOfDay, Days: days, UserID: userID}, nil
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.CreateHabit(rec, authedJSONRequest(t, http.MethodPost, "/api/habits", map[string]any{
		"name": "読書",
		"time": "21:00",
		"days": []string{"Mon", "Wed"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Habit created successfully" {
		t.Errorf("message = %v, want %q", body["message"], "Habit created successfully")
	}
	if body["habit_id"] != "habit-1" {
		t.Errorf("habit_id = %v, want habit-1", body["habit_id"])
	}
}

func TestHabitHandler_CreateHabit_MissingName(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, nil)

	rec := httptest.NewRecorder()
	h.CreateHabit(rec, authedJSONRequest(t, http.MethodPost, "/api/habits", map[string]any{
		"time": "21:00",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHabitHandler_CompleteHabit_Success(t *testing.T) {
	completed := false
	svc := &mockHabitService{
		completeFn: func(ctx context.Context, userID, habitID string) error {
			if userID != "user-1" || habitID != "habit-1" {
				t.Errorf("Complete called with (%q, %q)", userID, habitID)
			}
			completed = true
			return nil
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.CompleteHabit(rec, authedJSONRequest(t, http.MethodPost, "/api/complete-habit", map[string]string{
		"habit_id": "habit-1",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !completed {
		t.Error("expected service.Complete to be called")
	}
	body := decodeBody(t, rec)
	if body["message"] != "Habit marked as completed" {
		t.Errorf("message = %v, want %q", body["message"], "Habit marked as completed")
	}
}

func TestHabitHandler_CompleteHabit_NotFound(t *testing.T) {
	svc := &mockHabitService{
		completeFn: func(ctx context.Context, userID, habitID string) error {
			return model.NewHabitNotFoundError()
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.CompleteHabit(rec, authedJSONRequest(t, http.MethodPost, "/api/complete-habit", map[string]string{
		"habit_id": "no-such-habit",
	}))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	body := decodeBody(t, rec)
	if body["code"] != model.ErrCodeHabitNotFound {
		t.Errorf("code = %v, want %v", body["code"], model.ErrCodeHabitNotFound)
	}
}

func TestHabitHandler_CompleteHabit_MissingHabitID(t *testing.T) {
	h := NewHabitHandler(&mockHabitService{}, nil)

	rec := httptest.NewRecorder()
	h.CompleteHabit(rec, authedJSONRequest(t, http.MethodPost, "/api/complete-habit", map[string]string{}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHabitHandler_Progress(t *testing.T) {
	svc := &mockHabitService{
		progressFn: func(ctx context.Context, userID string) (*habit.Progress, error) {
			return &habit.Progress{TotalHabits: 4, CompletedToday: 3, ProgressPercentage: 75}, nil
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.Progress(rec, authedJSONRequest(t, http.MethodGet, "/api/progress", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["total_habits"] != float64(4) {
		t.Errorf("total_habits = %v, want 4", body["total_habits"])
	}
	if body["completed_today"] != float64(3) {
		t.Errorf("completed_today = %v, want 3", body["completed_today"])
	}
	if body["progress_percentage"] != float64(75) {
		t.Errorf("progress_percentage = %v, want 75", body["progress_percentage"])
	}
}

func TestHabitHandler_CompletionStatus(t *testing.T) {
	svc := &mockHabitService{
		completionStatusFn: func(ctx context.Context, userID string) (*habit.StatusPartition, error) {
			return &habit.StatusPartition{
				Completed: []habit.HabitStatus{{ID: "h1", Name: "読書", Time: "21:00", Days: []string{"Mon"}}},
				Pending:   []habit.HabitStatus{{ID: "h2", Name: "運動", Time: "07:00"}},
			}, nil
		},
	}
	h := NewHabitHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.CompletionStatus(rec, authedJSONRequest(t, http.MethodGet, "/api/completed-habits", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Completed []map[string]any `json:"completed"`
		Pending   []map[string]any `json:"pending"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if len(body.Completed) != 1 || len(body.Pending) != 1 {
		t.Fatalf("partition sizes = (%d, %d), want (1, 1)", len(body.Completed), len(body.Pending))
	}
	if body.Completed[0]["id"] != "h1" {
		t.Errorf("completed[0].id = %v, want h1", body.Completed[0]["id"])
	}
	// 縮約された項目に所有者IDと作成日時は含めない
	if _, ok := body.Completed[0]["user_id"]; ok {
		t.Error("user_id must not appear in the reduced projection")
	}
	if _, ok := body.Completed[0]["created_at"]; ok {
		t.Error("created_at must not appear in the reduced projection")
	}
	// daysが未設定でも空配列として返す
	if days, ok := body.Pending[0]["days"].([]any); !ok || len(days) != 0 {
		t.Errorf("pending[0].days = %v, want empty array", body.Pending[0]["days"])
	}
}
