package handler

import (
	"errors"
	"net/http"

	"GroupHub/internal/repository/mysql"
	"GroupHub/internal/service"

	"github.com/gin-gonic/gin"
)

// 统一返回结构：成功 {success, message}，失败 {success, error}
func ok(c *gin.Context, message string, extra ...gin.H) {
	body := gin.H{"success": true, "message": message}
	if len(extra) > 0 {
		for k, v := range extra[0] {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"success": false, "error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, mysql.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, mysql.ErrAlreadyMember),
		errors.Is(err, mysql.ErrJoinPending),
		errors.Is(err, mysql.ErrGroupFull),
		errors.Is(err, service.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrStoreFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func userIDFromCtx(c *gin.Context) uint64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}
