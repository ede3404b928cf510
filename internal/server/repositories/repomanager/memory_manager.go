package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every repository from one shared
// memory.Store. The DBTX argument is ignored; pair it with
// dbx.NopTransactor.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager(store *memory.Store) RepositoryManager {
	if store == nil {
		store = memory.NewStore()
	}
	return &MemoryRepositoryManager{store: store}
}

// RunMigrations is a no-op: the store has no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.store.Users() }

func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository { return m.store.Tokens() }

func (m *MemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository { return m.store.Tasks() }
