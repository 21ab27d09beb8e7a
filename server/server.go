// Package server 提供标签打印的 HTTP 接口。
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options 控制路由引擎的运行模式。
type Options struct {
	Mode        string   // dev | release
	CORSOrigins []string // 仅 dev 模式生效
}

// NewEngine 组装 gin 引擎：日志与恢复中间件、dev 模式下的 CORS、健康检查与 /api/v1 路由。
func NewEngine(h *Handler, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if opts.Mode == "dev" {
		origins := opts.CORSOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	RegisterRoutes(api, h)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, newErrDTO(ErrNotFound("route not found")))
	})
	return r
}
