package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"symptom-advisor-bot/internal/interfaces/http/handler"
)

// RegisterDebugRoutes 注册调试与问答接口
func RegisterDebugRoutes(engine *gin.Engine, adviceHandler *handler.AdviceHandler, mws ...gin.HandlerFunc) {
	debug := engine.Group("", mws...)
	{
		debug.POST("/test-gpt", adviceHandler.TestGPT)
		debug.OPTIONS("/test-gpt", preflight)
	}

	v1 := engine.Group("/v1", mws...)
	{
		v1.POST("/advice", adviceHandler.Advice)
		v1.OPTIONS("/advice", preflight)
	}
}

// preflight CORS 中间件未拦截时的兜底
func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
