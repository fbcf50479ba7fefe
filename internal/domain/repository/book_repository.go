// Package repository 定义领域仓储接口
package repository

import (
	"context"

	"livro-ai-api/internal/domain/entity"
)

// BookRepository 书籍仓储接口。
// postgres 与 memory 两种实现必须对上层行为一致：
//   - Save 以 (user_id, title) 解析身份，已存在即覆盖，不产生重复记录；
//   - Delete 按归属用户限定，删除不存在的 ID 是 no-op 而非错误。
type BookRepository interface {
	// ListByOwner 列出指定用户的全部书籍
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Book, error)
	// GetByID 按 ID 获取书籍，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	// Save 保存书籍（同用户同标题覆盖），返回带最终 ID 的记录
	Save(ctx context.Context, book *entity.Book) (*entity.Book, error)
	// Delete 删除指定用户名下的书籍
	Delete(ctx context.Context, id, ownerID string) error
}
