package handler

import (
	"strconv"

	"GroupHub/internal/model"
	"GroupHub/internal/service"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	svc *service.MemberService
}

func NewMemberHandler(svc *service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// Join 加入小组：公开组直接生效，私密组进入待审批
func (h *MemberHandler) Join(c *gin.Context) {
	userID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	status, err := h.svc.JoinGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		fail(c, err)
		return
	}

	msg := "joined the group"
	if status == model.StatusPending {
		msg = "join request sent, waiting for approval"
	}
	ok(c, msg, gin.H{"status": status.String()})
}

// Leave 退出小组
func (h *MemberHandler) Leave(c *gin.Context) {
	userID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	if err := h.svc.LeaveGroup(c.Request.Context(), userID, groupID); err != nil {
		fail(c, err)
		return
	}
	ok(c, "left the group")
}

// MyStatus 查询自己在小组中的状态（含 none）
func (h *MemberHandler) MyStatus(c *gin.Context) {
	userID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	status, err := h.svc.MembershipStatus(c.Request.Context(), userID, groupID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "ok", gin.H{"status": status})
}

// Members 活跃成员列表，游标分页
func (h *MemberHandler) Members(c *gin.Context) {
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, next, err := h.svc.ListMembers(c.Request.Context(), groupID, cursor, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "ok", gin.H{"list": rows, "next_cursor": next})
}

// Requests 待审批队列，仅管理员
func (h *MemberHandler) Requests(c *gin.Context) {
	operatorID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, next, err := h.svc.ListRequests(c.Request.Context(), operatorID, groupID, cursor, limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, "ok", gin.H{"list": rows, "next_cursor": next})
}

// Approve 通过入组申请
func (h *MemberHandler) Approve(c *gin.Context) {
	operatorID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Param("uid"), 10, 64)

	if err := h.svc.ApproveRequest(c.Request.Context(), operatorID, groupID, userID); err != nil {
		fail(c, err)
		return
	}
	ok(c, "request approved")
}

// Reject 驳回入组申请
func (h *MemberHandler) Reject(c *gin.Context) {
	operatorID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Param("uid"), 10, 64)

	if err := h.svc.RejectRequest(c.Request.Context(), operatorID, groupID, userID); err != nil {
		fail(c, err)
		return
	}
	ok(c, "request rejected")
}

// Ban 封禁成员
func (h *MemberHandler) Ban(c *gin.Context) {
	operatorID := userIDFromCtx(c)
	groupID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	userID, _ := strconv.ParseUint(c.Param("uid"), 10, 64)

	if err := h.svc.BanMember(c.Request.Context(), operatorID, groupID, userID); err != nil {
		fail(c, err)
		return
	}
	ok(c, "member banned")
}
