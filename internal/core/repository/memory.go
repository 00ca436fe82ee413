package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/duynhne/course-service/internal/core/domain"
)

type pairKey struct {
	userID   int64
	courseID string
}

// MemoryStore is a process-local store backing the three repositories for
// DB_DRIVER=memory and tests. A single mutex serializes every write, which
// gives the same uniqueness guarantees the PostgreSQL constraints provide.
type MemoryStore struct {
	mu sync.Mutex

	now func() time.Time

	nextUserID   int64
	nextRowID    int64
	users        map[int64]*domain.UserRow
	completions  map[pairKey]domain.Completion
	ratings      map[pairKey]domain.Rating
	ratingOrder  []pairKey // insertion order
	completedSeq []pairKey
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		users:       make(map[int64]*domain.UserRow),
		completions: make(map[pairKey]domain.Completion),
		ratings:     make(map[pairKey]domain.Rating),
	}
}

// Users returns the user repository view.
func (s *MemoryStore) Users() domain.UserRepository { return memoryUsers{s} }

// Completions returns the completion repository view.
func (s *MemoryStore) Completions() domain.CompletionRepository { return memoryCompletions{s} }

// Ratings returns the rating repository view.
func (s *MemoryStore) Ratings() domain.RatingRepository { return memoryRatings{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.UserRow, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, u := range m.s.users {
		if u.Email == email {
			row := *u
			return &row, nil
		}
	}
	return nil, nil
}

func (m memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, nil
	}
	user := u.User
	return &user, nil
}

func (m memoryUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	return m.s.taken(username, email), nil
}

func (m memoryUsers) Create(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.taken(username, email) {
		return nil, domain.ErrDuplicate
	}

	m.s.nextUserID++
	row := &domain.UserRow{
		User: domain.User{
			ID:        m.s.nextUserID,
			Username:  username,
			Email:     email,
			CreatedAt: m.s.now(),
		},
		PasswordHash: passwordHash,
	}
	m.s.users[row.ID] = row

	user := row.User
	return &user, nil
}

// taken must be called with mu held.
func (s *MemoryStore) taken(username, email string) bool {
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

type memoryCompletions struct{ s *MemoryStore }

func (m memoryCompletions) Complete(_ context.Context, userID int64, courseID string, reward int) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := pairKey{userID, courseID}
	if _, done := m.s.completions[key]; done {
		return false, nil
	}
	u, ok := m.s.users[userID]
	if !ok {
		return false, fmt.Errorf("credit points: user %d not found", userID)
	}

	m.s.nextRowID++
	m.s.completions[key] = domain.Completion{
		ID:          m.s.nextRowID,
		UserID:      userID,
		CourseID:    courseID,
		CompletedAt: m.s.now(),
	}
	m.s.completedSeq = append(m.s.completedSeq, key)
	u.Points += reward

	return true, nil
}

func (m memoryCompletions) ListByUser(_ context.Context, userID int64) ([]domain.Completion, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := []domain.Completion{}
	for _, key := range m.s.completedSeq {
		if key.userID == userID {
			out = append(out, m.s.completions[key])
		}
	}
	return out, nil
}

type memoryRatings struct{ s *MemoryStore }

func (m memoryRatings) Upsert(_ context.Context, userID int64, courseID string, rating int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := pairKey{userID, courseID}
	r, exists := m.s.ratings[key]
	if !exists {
		m.s.nextRowID++
		r = domain.Rating{ID: m.s.nextRowID, UserID: userID, CourseID: courseID}
		m.s.ratingOrder = append(m.s.ratingOrder, key)
	}
	r.Rating = rating
	r.CreatedAt = m.s.now()
	m.s.ratings[key] = r

	return nil
}

func (m memoryRatings) Aggregate(_ context.Context, courseID string) (domain.Aggregate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	return m.s.aggregate(courseID), nil
}

func (m memoryRatings) AggregateMany(_ context.Context, courseIDs []string) (map[string]domain.Aggregate, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := make(map[string]domain.Aggregate, len(courseIDs))
	for _, id := range courseIDs {
		if agg := m.s.aggregate(id); agg.Count > 0 {
			out[id] = agg
		}
	}
	return out, nil
}

func (m memoryRatings) ListByUser(_ context.Context, userID int64) ([]domain.Rating, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	out := []domain.Rating{}
	for _, key := range m.s.ratingOrder {
		if key.userID == userID {
			out = append(out, m.s.ratings[key])
		}
	}
	return out, nil
}

// aggregate must be called with mu held.
func (s *MemoryStore) aggregate(courseID string) domain.Aggregate {
	var sum, count int
	for key, r := range s.ratings {
		if key.courseID == courseID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return domain.Aggregate{}
	}
	avg := float64(sum) / float64(count)
	return domain.Aggregate{Average: &avg, Count: count}
}
