// Package memory keeps users, tokens and tasks in process memory. It backs
// the "memory" DSN and the service tests. Values are copied on the way in and
// out so callers never share state with the store.
package memory

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type userRecord struct {
	user   models.User
	avatar []byte
	tokens []string
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	users  map[string]*userRecord
	emails map[string]string
	tasks  map[string]models.Task
	// taskSeq remembers insertion order, the tie-breaker for listings.
	taskSeq map[string]uint64
	seq     uint64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		emails:  make(map[string]string),
		tasks:   make(map[string]models.Task),
		taskSeq: make(map[string]uint64),
		now:     time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tokens returns the token repository view of the store.
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s: s} }

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
