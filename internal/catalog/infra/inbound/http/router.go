package http

import "github.com/gin-gonic/gin"

func RegisterArticleRoutes(r *gin.Engine, handler *ArticleHandler) {
	api := r.Group("/api/v1")
	{
		api.GET("/articles", handler.ListArticles)
		api.GET("/articles/feed", handler.ListFeed)
	}
}
