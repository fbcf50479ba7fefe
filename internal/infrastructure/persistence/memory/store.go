// Package memory 提供书籍仓储的进程内实现。
// 用于本地开发与测试：行为与 postgres 实现完全一致，
// 通过 storage.backend 配置在组装期切换，上层无感知。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
	"livro-ai-api/pkg/metrics"
)

// BookStore 进程内书籍仓储
type BookStore struct {
	mu    sync.RWMutex
	books map[string]*entity.Book // key: book ID
}

// NewBookStore 创建进程内书籍仓储
func NewBookStore() *BookStore {
	return &BookStore{books: make(map[string]*entity.Book)}
}

var _ repository.BookRepository = (*BookStore)(nil)

// ListByOwner 列出指定用户的全部书籍，按更新时间倒序
func (s *BookStore) ListByOwner(_ context.Context, ownerID string) ([]*entity.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var books []*entity.Book
	for _, b := range s.books {
		if b.UserID == ownerID {
			books = append(books, cloneBook(b))
		}
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].UpdatedAt.After(books[j].UpdatedAt)
	})
	return books, nil
}

// GetByID 根据 ID 获取书籍，未找到返回 (nil, nil)
func (s *BookStore) GetByID(_ context.Context, id string) (*entity.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.books[id]; ok {
		return cloneBook(b), nil
	}
	return nil, nil
}

// Save 保存书籍。
// 与 postgres 实现同样以 (user_id, title) 为身份：同名覆盖正文，
// 保留原记录 ID 与创建时间。
func (s *BookStore) Save(_ context.Context, book *entity.Book) (*entity.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.books {
		if existing.UserID == book.UserID && existing.Title == book.Title {
			existing.Content = book.Content
			existing.UpdatedAt = time.Now()
			metrics.BooksSavedTotal.WithLabelValues("memory").Inc()
			return cloneBook(existing), nil
		}
	}

	stored := cloneBook(book)
	s.books[stored.ID] = stored
	metrics.BooksSavedTotal.WithLabelValues("memory").Inc()
	return cloneBook(stored), nil
}

// Delete 删除指定用户名下的书籍；不存在时为 no-op
func (s *BookStore) Delete(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.books[id]; ok && b.UserID == ownerID {
		delete(s.books, id)
	}
	return nil
}

// cloneBook 返回副本，防止调用方修改内部状态
func cloneBook(b *entity.Book) *entity.Book {
	cp := *b
	return &cp
}
