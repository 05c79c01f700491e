package middleware

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mamastoria/internal/utils"
)

// Timeout кладёт дедлайн в контекст запроса; сервисы и драйвер БД его уважают.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CORS на gin-contrib/cors. Запрос с чужим Origin получает 403.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if match := utils.OriginMatcher(origins); match != nil {
		cfg.AllowOriginFunc = match
	} else {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}
