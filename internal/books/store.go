package books

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"governance-gateway/middleware/failure"
)

const resource = "book"

// Store é o contrato CRUD do armazenamento. Falhas são *failure.StorageFault.
type Store interface {
	Get(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context, f Filter, p Page) ([]Book, int, error)
	Create(ctx context.Context, b Book) (Book, error)
	Update(ctx context.Context, id int64, in UpdateInput, at time.Time) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// MemoryStore guarda os livros em memória. (title, author) é único, como um
// índice composto.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Book
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, rows: make(map[int64]Book)}
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, failure.Storage("get", resource, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.rows[id]
	if !ok {
		return Book{}, failure.RecordMissing("get", resource, id)
	}
	return b, nil
}

// List ordena do mais novo para o mais antigo e devolve o total antes da
// paginação.
func (s *MemoryStore) List(ctx context.Context, f Filter, p Page) ([]Book, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, failure.Storage("list", resource, err)
	}
	s.mu.RLock()
	matched := make([]Book, 0, len(s.rows))
	for _, b := range s.rows {
		if f.match(b) {
			matched = append(matched, b)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Book) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	total := len(matched)
	from := min(p.Offset(), total)
	to := min(from+p.Limit, total)
	return matched[from:to], total, nil
}

func (s *MemoryStore) Create(ctx context.Context, b Book) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, failure.Storage("create", resource, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflict(0, b.Title, b.Author) {
		return Book{}, failure.UniqueConflict("create", resource, nil)
	}
	b.ID = s.nextID
	s.nextID++
	s.rows[b.ID] = b
	return b, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, in UpdateInput, at time.Time) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, failure.Storage("update", resource, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.rows[id]
	if !ok {
		return Book{}, failure.RecordMissing("update", resource, id)
	}
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.PublishedYear != nil {
		b.PublishedYear = in.PublishedYear
	}
	if in.Genre != nil {
		b.Genre = in.Genre
	}
	if s.conflict(id, b.Title, b.Author) {
		return Book{}, failure.UniqueConflict("update", resource, nil)
	}
	b.UpdatedAt = at
	s.rows[id] = b
	return b, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return failure.Storage("delete", resource, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return failure.RecordMissing("delete", resource, id)
	}
	delete(s.rows, id)
	return nil
}

// conflict deve ser chamado com o lock de escrita.
func (s *MemoryStore) conflict(self int64, title, author string) bool {
	for id, b := range s.rows {
		if id != self && strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author) {
			return true
		}
	}
	return false
}

func (f Filter) match(b Book) bool {
	if f.Title != "" && !containsFold(b.Title, f.Title) {
		return false
	}
	if f.Author != "" && !containsFold(b.Author, f.Author) {
		return false
	}
	if f.Genre != "" && (b.Genre == nil || !containsFold(*b.Genre, f.Genre)) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
