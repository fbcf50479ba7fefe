package dto

import (
	"time"

	"livro-ai-api/internal/domain/entity"
)

// BookSummary 书架列表项
type BookSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookDetail 书籍详情
type BookDetail struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadBookResponse 载入书稿到工作区的响应
type LoadBookResponse struct {
	Book   *BookDetail `json:"book"`
	Primed bool        `json:"primed"`
}

// ToBookSummary 实体转列表项 DTO
func ToBookSummary(b *entity.Book) *BookSummary {
	return &BookSummary{
		ID:        b.ID,
		Title:     b.Title,
		UpdatedAt: b.UpdatedAt,
	}
}

// ToBookSummaries 实体列表转列表项 DTO
func ToBookSummaries(books []*entity.Book) []*BookSummary {
	out := make([]*BookSummary, 0, len(books))
	for _, b := range books {
		out = append(out, ToBookSummary(b))
	}
	return out
}

// ToBookDetail 实体转详情 DTO
func ToBookDetail(b *entity.Book) *BookDetail {
	return &BookDetail{
		ID:        b.ID,
		Title:     b.Title,
		Content:   b.Content,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
