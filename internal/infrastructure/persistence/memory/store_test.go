package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
)

func TestBookStoreSaveAndGet(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	book := entity.NewBook("u1", "A Ilha", "TÍTULO: A Ilha\n\ntexto")
	stored, err := s.Save(ctx, book)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored book has empty ID")
	}

	got, err := s.GetByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got == nil || got.Title != "A Ilha" {
		t.Errorf("GetByID() = %+v", got)
	}
}

func TestBookStoreGetMissing(t *testing.T) {
	s := NewBookStore()
	got, err := s.GetByID(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("GetByID(missing) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestBookStoreSameTitleOverwrites(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	first, _ := s.Save(ctx, entity.NewBook("u1", "Mar Adentro", "versão um"))
	second, err := s.Save(ctx, entity.NewBook("u1", "Mar Adentro", "versão dois"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("overwrite changed ID: %s -> %s", first.ID, second.ID)
	}
	if second.Content != "versão dois" {
		t.Errorf("Content = %q", second.Content)
	}

	books, _ := s.ListByOwner(ctx, "u1")
	if len(books) != 1 {
		t.Errorf("ListByOwner() len = %d, want 1", len(books))
	}
}

func TestBookStoreSameTitleDifferentOwners(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	a, _ := s.Save(ctx, entity.NewBook("u1", "Título", "de u1"))
	b, _ := s.Save(ctx, entity.NewBook("u2", "Título", "de u2"))
	if a.ID == b.ID {
		t.Error("different owners must keep separate records")
	}
}

func TestBookStoreListScopedAndOrdered(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	old := entity.NewBook("u1", "Antigo", "a")
	old.UpdatedAt = time.Now().Add(-time.Hour)
	s.books[old.ID] = old
	s.Save(ctx, entity.NewBook("u1", "Recente", "b"))
	s.Save(ctx, entity.NewBook("u2", "De Outro", "c"))

	books, err := s.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("len = %d, want 2", len(books))
	}
	if books[0].Title != "Recente" || books[1].Title != "Antigo" {
		t.Errorf("order = [%s, %s], want newest first", books[0].Title, books[1].Title)
	}
}

func TestBookStoreDelete(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	stored, _ := s.Save(ctx, entity.NewBook("u1", "Para Apagar", "x"))

	// 其他用户删除不生效
	if err := s.Delete(ctx, stored.ID, "u2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := s.GetByID(ctx, stored.ID); got == nil {
		t.Fatal("cross-owner delete must be a no-op")
	}

	if err := s.Delete(ctx, stored.ID, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := s.GetByID(ctx, stored.ID); got != nil {
		t.Error("book still present after delete")
	}

	// 再次删除是 no-op
	if err := s.Delete(ctx, stored.ID, "u1"); err != nil {
		t.Errorf("repeated Delete() error = %v", err)
	}
}

func TestBookStoreReturnsCopies(t *testing.T) {
	s := NewBookStore()
	ctx := context.Background()

	stored, _ := s.Save(ctx, entity.NewBook("u1", "Imutável", "original"))
	stored.Content = "mutado"

	got, _ := s.GetByID(ctx, stored.ID)
	if got.Content != "original" {
		t.Errorf("internal state mutated through returned value: %q", got.Content)
	}
}

func TestUserStoreCreateAndLookup(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	u := entity.NewUser("ana@example.com", "Ana")
	if err := s.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	byEmail, err := s.GetByEmail(ctx, "ana@example.com")
	if err != nil || byEmail == nil || byEmail.ID != u.ID {
		t.Errorf("GetByEmail() = (%+v, %v)", byEmail, err)
	}

	exists, _ := s.ExistsByEmail(ctx, "ana@example.com")
	if !exists {
		t.Error("ExistsByEmail() = false")
	}
	exists, _ = s.ExistsByEmail(ctx, "outro@example.com")
	if exists {
		t.Error("ExistsByEmail(missing) = true")
	}
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	if err := s.Create(ctx, entity.NewUser("ana@example.com", "Ana")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := s.Create(ctx, entity.NewUser("ana@example.com", "Outra Ana"))
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserStoreUpdateLastLogin(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	u := entity.NewUser("ana@example.com", "Ana")
	s.Create(ctx, u)

	if err := s.UpdateLastLogin(ctx, u.ID); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}
	got, _ := s.GetByID(ctx, u.ID)
	if got.LastLoginAt == nil {
		t.Error("LastLoginAt not set")
	}
}
