package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Negixaab/runningbuddy/internal/auth"
	"github.com/Negixaab/runningbuddy/internal/handler"
	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/service"
)

// Services 路由依赖的服务
type Services struct {
	Runs       *service.RunService
	Challenges *service.ChallengeService
	Streaks    *service.StreakService
	Verifier   auth.Verifier
	Limiter    *middleware.RateLimiter // nil disables rate limiting

	LiveOptions []handler.LiveOption
}

// SetupRouter 设置路由
func SetupRouter(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "RunningBuddy API is running",
		})
	})

	runHandler := handler.NewRunHandler(svc.Runs)
	liveHandler := handler.NewLiveRunHandler(svc.Runs, svc.LiveOptions...)
	challengeHandler := handler.NewChallengeHandler(svc.Challenges)
	streakHandler := handler.NewStreakHandler(svc.Streaks)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(svc.Limiter), middleware.Auth(svc.Verifier))
	{
		// 跑步记录
		runs := api.Group("/runs")
		{
			runs.POST("", runHandler.CreateRun)
			runs.GET("", runHandler.GetRuns)
			runs.GET("/summary", runHandler.GetWeeklySummary)
			runs.GET("/live", liveHandler.StreamRun)
		}

		// 连续打卡
		api.GET("/users/streak", streakHandler.GetStreak)

		// 挑战
		challenges := api.Group("/challenges")
		{
			challenges.GET("", challengeHandler.GetChallenges)
			challenges.GET("/today", challengeHandler.GetToday)
			challenges.GET("/active", challengeHandler.GetActive)
			challenges.POST("/:id/start", challengeHandler.StartChallenge)
			challenges.POST("/:id/end", challengeHandler.EndChallenge)
		}
	}

	return r
}
