package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
	"livro-ai-api/pkg/metrics"
)

// BookRepository 书籍仓储的 PostgreSQL 实现
type BookRepository struct {
	client *Client
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(client *Client) *BookRepository {
	return &BookRepository{client: client}
}

var _ repository.BookRepository = (*BookRepository)(nil)

// ListByOwner 列出指定用户的全部书籍，按更新时间倒序
func (r *BookRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.ListByOwner")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	var books []*entity.Book
	if err := db.Where("user_id = ?", ownerID).Order("updated_at DESC").Find(&books).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetByID 根据 ID 获取书籍
func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetByID")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	var book entity.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// Save 保存书籍。
// 以 (user_id, title) 为身份做 upsert：同用户保存同名书籍覆盖原正文，
// 保留原记录 ID 与创建时间。返回保存后的最终记录。
func (r *BookRepository) Save(ctx context.Context, book *entity.Book) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Save")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(book).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save book: %w", err)
	}

	// upsert 命中已有记录时 book.ID 不是最终 ID，按身份读回
	var stored entity.Book
	if err := db.First(&stored, "user_id = ? AND title = ?", book.UserID, book.Title).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read back saved book: %w", err)
	}

	metrics.BooksSavedTotal.WithLabelValues("postgres").Inc()
	return &stored, nil
}

// Delete 删除指定用户名下的书籍；不存在时为 no-op
func (r *BookRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Delete")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	if err := db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&entity.Book{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}
