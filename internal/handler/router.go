package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/habitmaster/internal/metrics"
	"github.com/hitoshi/habitmaster/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	TokenResolver     middleware.TokenResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AuthService  AuthServiceInterface
	HabitService HabitServiceInterface

	// メトリクス（nilの場合は記録・公開しない）
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → (保護ルートのみ) Auth → RateLimit
//
// 登録・ログイン・ヘルスチェック・/metricsは認証ゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// typed nilがインターフェースのnil判定をすり抜けないように詰め替える
	var httpRecorder middleware.HTTPMetricsRecorder
	var regRecorder RegistrationRecorder
	var compRecorder CompletionRecorder
	if deps.Metrics != nil {
		httpRecorder = deps.Metrics
		regRecorder = deps.Metrics
		compRecorder = deps.Metrics
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewMetricsMiddleware(httpRecorder))
	// CORS ミドルウェアを適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, regRecorder)
	habitHandler := NewHabitHandler(deps.HabitService, compRecorder)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// 死活確認用のルートエンドポイント
	r.Get("/api/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{
			"message": "HabitMaster API is running",
		})
	})

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/api/habits", habitHandler.ListHabits)
		r.Get("/api/completed-habits", habitHandler.CompletionStatus)
		r.Get("/api/progress", habitHandler.Progress)

		// 更新系エンドポイントには専用レート制限を追加
		if deps.RateLimiter != nil {
			mutation := deps.RateLimiter.MutationMiddleware()
			r.With(mutation).Post("/api/habits", habitHandler.CreateHabit)
			r.With(mutation).Post("/api/complete-habit", habitHandler.CompleteHabit)
		} else {
			r.Post("/api/habits", habitHandler.CreateHabit)
			r.Post("/api/complete-habit", habitHandler.CompleteHabit)
		}
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
