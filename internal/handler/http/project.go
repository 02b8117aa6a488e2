package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"teamhub/internal/service"
)

// ProjectHandler 封装了与项目管理相关的 HTTP 处理逻辑
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler 实例
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// authenticatedUserID 从 Gin 上下文中取出 Auth 中间件设置的用户 ID。
func authenticatedUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error processing user ID"})
		return 0, false
	}
	return userID, true
}

// CreateProjectRequest 定义创建项目请求的结构体
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateProjectResponse 定义创建项目成功的响应结构体
type CreateProjectResponse struct {
	Message   string `json:"message"`
	ProjectID uint   `json:"project_id"`
}

// CreateProject 处理创建新项目的请求。创建者自动成为成员。
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreateProject: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: name is required"})
		return
	}

	newProject, err := h.projectService.CreateProject(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		logCtx.WithError(err).Error("Handler.CreateProject: Failed to create project via service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	logCtx.WithField("project_id", newProject.ID).Info("Handler.CreateProject: Project created successfully")
	c.JSON(http.StatusOK, CreateProjectResponse{
		Message:   "Project created successfully",
		ProjectID: newProject.ID,
	})
}

// ListProjects 返回当前用户参与的所有项目
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Handler.ListProjects: Failed to list projects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// AddMemberRequest 定义邀请成员请求的结构体
type AddMemberRequest struct {
	ProjectID uint `json:"project_id" binding:"required"`
	UserID    uint `json:"user_id" binding:"required"`
}

// AddMember 处理邀请用户加入项目的请求。只有现有成员可以邀请。
func (h *ProjectHandler) AddMember(c *gin.Context) {
	inviterID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("inviter_id", inviterID)

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.AddMember: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: project_id and user_id are required"})
		return
	}
	logCtx = logCtx.WithFields(logrus.Fields{"project_id": req.ProjectID, "user_id": req.UserID})

	err := h.projectService.AddMember(c.Request.Context(), req.ProjectID, inviterID, req.UserID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.AddMember: Failed to add member via service")
		if errors.Is(err, service.ErrProjectNotFound) || errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, service.ErrAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member due to server error"})
		}
		return
	}

	logCtx.Info("Handler.AddMember: Member added successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully"})
}
