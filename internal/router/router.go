package router

import (
	"GroupHub/internal/handler"
	"GroupHub/internal/middleware"
	"GroupHub/internal/pkg"
	"GroupHub/internal/repository/mysql"
	"GroupHub/internal/repository/redis"
	"GroupHub/internal/service"

	"github.com/gin-gonic/gin"
)

func InitRouter(mailCfg *pkg.SMTPConfig) *gin.Engine {
	r := gin.Default()

	cache := redis.NewGroupCacheRepository()
	lock := &redis.DistLock{RDB: redis.Client}

	user := handler.NewUserHandler(service.NewUserService(mysql.DB))
	group := handler.NewGroupHandler(service.NewGroupService(mysql.DB, cache, lock))
	member := handler.NewMemberHandler(service.NewMemberService(mysql.DB, cache, mailCfg))

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.AuthMiddleware())
	{
		authGroup.POST("/logout", user.Logout)
		authGroup.POST("/change-password", user.ChangePassword)
	}

	// 小组与成员相关接口
	groupRoutes := r.Group("/api/group")
	groupRoutes.Use(middleware.AuthMiddleware())
	{
		groupRoutes.POST("/create", group.Create)
		groupRoutes.GET("/list", group.List)
		groupRoutes.GET("/:id", group.Get)
		groupRoutes.POST("/:id/deactivate", group.Deactivate)

		groupRoutes.POST("/:id/join", member.Join)
		groupRoutes.POST("/:id/leave", member.Leave)
		groupRoutes.GET("/:id/status", member.MyStatus)
		groupRoutes.GET("/:id/members", member.Members)

		// 审批与管理
		groupRoutes.GET("/:id/requests", member.Requests)
		groupRoutes.POST("/:id/requests/:uid/approve", member.Approve)
		groupRoutes.POST("/:id/requests/:uid/reject", member.Reject)
		groupRoutes.POST("/:id/members/:uid/ban", member.Ban)
	}

	return r
}
