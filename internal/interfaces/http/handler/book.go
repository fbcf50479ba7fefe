package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"livro-ai-api/internal/application/generation"
	"livro-ai-api/internal/application/render"
	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
	redisinfra "livro-ai-api/internal/infrastructure/persistence/redis"
	"livro-ai-api/internal/interfaces/http/dto"
	"livro-ai-api/pkg/logger"
)

const bookListCacheTTL = 5 * time.Minute

// BookHandler 书架处理器
type BookHandler struct {
	bookRepo     repository.BookRepository
	cache        *redisinfra.Cache // 可为 nil，此时直接读仓储
	orchestrator *generation.Orchestrator
}

// NewBookHandler 创建书架处理器
func NewBookHandler(bookRepo repository.BookRepository, cache *redisinfra.Cache, orchestrator *generation.Orchestrator) *BookHandler {
	return &BookHandler{
		bookRepo:     bookRepo,
		cache:        cache,
		orchestrator: orchestrator,
	}
}

// List 列出当前用户的书架
// @Summary 书架列表
// @Tags Books
// @Produce json
// @Success 200 {object} dto.Response[[]dto.BookSummary]
// @Router /v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	if h.cache == nil {
		books, err := h.bookRepo.ListByOwner(ctx, userID)
		if err != nil {
			logger.Error(ctx, "failed to list books", err, "user_id", userID)
			dto.InternalError(c, "failed to list books")
			return
		}
		dto.Success(c, dto.ToBookSummaries(books))
		return
	}

	raw, err := h.cache.GetOrLoadSafe(ctx, redisinfra.BookListKey(userID), bookListCacheTTL, func() (interface{}, error) {
		books, err := h.bookRepo.ListByOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		return dto.ToBookSummaries(books), nil
	})
	if err != nil {
		logger.Error(ctx, "failed to list books", err, "user_id", userID)
		dto.InternalError(c, "failed to list books")
		return
	}

	var summaries []*dto.BookSummary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		logger.Error(ctx, "failed to decode cached book list", err, "user_id", userID)
		dto.InternalError(c, "failed to list books")
		return
	}
	dto.Success(c, summaries)
}

// Save 把当前工作区内容存为书籍。
// 书名从书稿的 TÍTULO 行提取；同名书籍整体覆盖。
// @Summary 保存当前书稿
// @Tags Books
// @Produce json
// @Success 201 {object} dto.Response[dto.BookDetail]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/books [post]
func (h *BookHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	ws := h.orchestrator.Workspace(userID)
	if !ws.Generated || ws.Content == "" {
		dto.BadRequest(c, "workspace is empty, nothing to save")
		return
	}

	title := render.ExtractTitle(ws.Content)
	book := entity.NewBook(userID, title, ws.Content)

	stored, err := h.bookRepo.Save(ctx, book)
	if err != nil {
		logger.Error(ctx, "failed to save book", err, "user_id", userID, "title", title)
		dto.InternalError(c, "failed to save book")
		return
	}

	h.invalidateList(c, userID)
	logger.Info(ctx, "book saved", "user_id", userID, "book_id", stored.ID, "title", stored.Title)
	dto.Created(c, dto.ToBookDetail(stored))
}

// Get 获取书籍详情
// @Summary 书籍详情
// @Tags Books
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.BookDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	book, err := h.ownedBook(c)
	if err != nil {
		logger.Error(ctx, "failed to get book", err, "book_id", c.Param("id"))
		dto.InternalError(c, "failed to get book")
		return
	}
	if book == nil {
		dto.NotFound(c, "book not found")
		return
	}

	dto.Success(c, dto.ToBookDetail(book))
}

// Delete 删除书籍；不存在时同样返回 204
// @Summary 删除书籍
// @Tags Books
// @Param id path string true "书籍 ID"
// @Success 204
// @Router /v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	if err := h.bookRepo.Delete(ctx, c.Param("id"), userID); err != nil {
		logger.Error(ctx, "failed to delete book", err, "book_id", c.Param("id"))
		dto.InternalError(c, "failed to delete book")
		return
	}

	h.invalidateList(c, userID)
	dto.NoContent(c)
}

// Load 把已保存的书稿载入工作区，并用正文预热生成会话。
// 预热失败不阻断载入，响应中 primed 为 false。
// @Summary 载入书稿到工作区
// @Tags Books
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.LoadBookResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/books/{id}/load [post]
func (h *BookHandler) Load(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	book, err := h.ownedBook(c)
	if err != nil {
		logger.Error(ctx, "failed to get book", err, "book_id", c.Param("id"))
		dto.InternalError(c, "failed to load book")
		return
	}
	if book == nil {
		dto.NotFound(c, "book not found")
		return
	}

	primed, err := h.orchestrator.Load(ctx, userID, book.Content)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	if !primed {
		logger.Warn(ctx, "book loaded without session context", "user_id", userID, "book_id", book.ID)
	}

	dto.Success(c, &dto.LoadBookResponse{
		Book:   dto.ToBookDetail(book),
		Primed: primed,
	})
}

// ownedBook 读取路径参数指定的书籍并校验归属；无归属视为不存在
func (h *BookHandler) ownedBook(c *gin.Context) (*entity.Book, error) {
	book, err := h.bookRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if book == nil || book.UserID != c.GetString("user_id") {
		return nil, nil
	}
	return book, nil
}

func (h *BookHandler) invalidateList(c *gin.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateUserBooks(c.Request.Context(), userID); err != nil {
		logger.Warn(c.Request.Context(), "failed to invalidate book cache", "error", err, "user_id", userID)
	}
}
