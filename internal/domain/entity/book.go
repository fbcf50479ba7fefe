// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Book 书籍实体：标题 + 完整正文。
// 身份策略：同一用户下标题唯一，保存同名书籍会整体覆盖旧记录。
// 正文只做整体替换，从不局部修改。
type Book struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_books_owner_title"`
	Title     string    `json:"title" gorm:"type:varchar(512);not null;uniqueIndex:idx_books_owner_title"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Book) TableName() string {
	return "books"
}

// NewBook 创建新书籍
func NewBook(userID, title, content string) *Book {
	now := time.Now()
	return &Book{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
