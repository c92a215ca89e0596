package handler

import (
	"strconv"

	"GroupHub/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	svc *service.GroupService
}

type GroupCreateReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"is_public"`
	MaxMembers  int64  `json:"max_members"`
}

func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID := userIDFromCtx(c)

	var req GroupCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errInvalidParams)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	group, err := h.svc.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, isPublic, req.MaxMembers)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, "group created", gin.H{
		"id":          group.ID,
		"name":        group.Name,
		"is_public":   group.IsPublic,
		"max_members": group.MaxMembers,
	})
}

// Get 小组详情，成员数优先走缓存
func (h *GroupHandler) Get(c *gin.Context) {
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	group, err := h.svc.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		fail(c, err)
		return
	}
	count, err := h.svc.MemberCount(c.Request.Context(), groupID)
	if err != nil {
		count = group.MemberCount
	}

	ok(c, "ok", gin.H{
		"id":           group.ID,
		"name":         group.Name,
		"description":  group.Description,
		"is_public":    group.IsPublic,
		"is_active":    group.IsActive,
		"member_count": count,
		"max_members":  group.MaxMembers,
	})
}

func (h *GroupHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.ListGroups(c.Request.Context(), page, size)
	if err != nil {
		fail(c, service.ErrStoreFailure)
		return
	}
	ok(c, "ok", gin.H{"list": list})
}

// Deactivate 下线小组，仅管理员
func (h *GroupHandler) Deactivate(c *gin.Context) {
	operatorID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	if err := h.svc.DeactivateGroup(c.Request.Context(), operatorID, groupID); err != nil {
		fail(c, err)
		return
	}
	ok(c, "group deactivated")
}
