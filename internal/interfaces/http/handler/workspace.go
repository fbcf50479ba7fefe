package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"livro-ai-api/internal/application/generation"
	"livro-ai-api/internal/application/prompt"
	"livro-ai-api/internal/application/render"
	"livro-ai-api/internal/interfaces/http/dto"
	apperrors "livro-ai-api/pkg/errors"
)

// Genres 可选书籍体裁
var Genres = []string{
	"Comédia",
	"Ação",
	"Ficção Científica",
	"Fantasia",
	"Romance",
	"Suspense",
	"Terror",
	"Drama",
}

// WorkspaceHandler 工作区处理器：生成动作的 SSE 流与工作区查询
type WorkspaceHandler struct {
	orchestrator *generation.Orchestrator
}

// NewWorkspaceHandler 创建工作区处理器
func NewWorkspaceHandler(orchestrator *generation.Orchestrator) *WorkspaceHandler {
	return &WorkspaceHandler{orchestrator: orchestrator}
}

// Generate 全新生成整本书
// @Summary 生成整本书
// @Tags Workspace
// @Accept json
// @Produce text/event-stream
// @Param body body dto.GenerateRequest true "生成参数"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/workspace/generate [post]
func (h *WorkspaceHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	instruction, err := prompt.Generate(req.Topic, req.Genre)
	if err != nil {
		dto.BadRequest(c, "topic is required")
		return
	}

	h.stream(c, generation.ActionGenerate, instruction)
}

// Continue 续写新章节
func (h *WorkspaceHandler) Continue(c *gin.Context) {
	h.stream(c, generation.ActionContinue, prompt.Continue())
}

// Expand 整体扩写
func (h *WorkspaceHandler) Expand(c *gin.Context) {
	h.stream(c, generation.ActionExpand, prompt.Expand())
}

// ImproveDialogue 对白润色
func (h *WorkspaceHandler) ImproveDialogue(c *gin.Context) {
	h.stream(c, generation.ActionDialogue, prompt.ImproveDialogue())
}

// Organize 章节整理（插入或重排）
func (h *WorkspaceHandler) Organize(c *gin.Context) {
	var req dto.OrganizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	instruction, err := prompt.Organize(prompt.OrganizeParams{
		Mode:         prompt.OrganizeMode(req.Mode),
		AfterChapter: req.AfterChapter,
		Topic:        req.Topic,
		Sequence:     req.Sequence,
	})
	if err != nil {
		dto.BadRequest(c, "missing organize fields for mode "+req.Mode)
		return
	}

	h.stream(c, generation.ActionOrganize, instruction)
}

// Workspace 返回当前工作区快照
// @Summary 工作区快照
// @Tags Workspace
// @Produce json
// @Success 200 {object} dto.Response[dto.WorkspaceResponse]
// @Router /v1/workspace [get]
func (h *WorkspaceHandler) Workspace(c *gin.Context) {
	ws := h.orchestrator.Workspace(c.GetString("user_id"))
	dto.Success(c, &dto.WorkspaceResponse{
		Content:   ws.Content,
		Generated: ws.Generated,
	})
}

// Render 返回工作区书稿的结构化行块
// @Summary 渲染书稿
// @Tags Workspace
// @Produce json
// @Success 200 {object} dto.Response[dto.RenderResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/workspace/render [get]
func (h *WorkspaceHandler) Render(c *gin.Context) {
	ws := h.orchestrator.Workspace(c.GetString("user_id"))
	if !ws.Generated {
		dto.BadRequest(c, "workspace is empty")
		return
	}

	dto.Success(c, &dto.RenderResponse{
		Title:  render.ExtractTitle(ws.Content),
		Blocks: render.Parse(ws.Content),
	})
}

// Reset 清空工作区并结束生成会话
func (h *WorkspaceHandler) Reset(c *gin.Context) {
	if err := h.orchestrator.Reset(c.Request.Context(), c.GetString("user_id")); err != nil {
		dto.AppError(c, err)
		return
	}
	dto.NoContent(c)
}

// ListGenres 返回可选体裁
func (h *WorkspaceHandler) ListGenres(c *gin.Context) {
	dto.Success(c, &dto.GenresResponse{Genres: Genres})
}

// stream 把一次生成运行以 SSE 推送给客户端。
// 事件：content（片段）、done（完成）、error（失败，已到达的片段保留在工作区）。
func (h *WorkspaceHandler) stream(c *gin.Context, action generation.Action, instruction string) {
	ctx := c.Request.Context()

	run, err := h.orchestrator.Start(ctx, c.GetString("user_id"), action, instruction)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	defer run.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	index := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			// 客户端断开，Close 负责中止运行
			return false
		default:
		}

		fragment, err := run.Recv()
		if errors.Is(err, io.EOF) {
			c.SSEvent("done", gin.H{"fragments": run.Fragments()})
			return false
		}
		if err != nil {
			appErr := apperrors.AsAppError(err)
			c.SSEvent("error", gin.H{"message": appErr.Message})
			return false
		}

		c.SSEvent("content", gin.H{
			"chunk": fragment,
			"index": index,
		})
		index++
		return true
	})
}
