package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tokens"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.SecretKey = "test-secret"
	return cfg
}

type testEnv struct {
	store *memory.Store
	repos repomanager.RepositoryManager
	users *UserService
	tasks *TaskService
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	store := memory.NewStore()
	repos := repomanager.NewMemoryRepositoryManager(store)
	return newTestEnvWith(t, cfg, store, repos)
}

func newTestEnvWith(t *testing.T, cfg *config.Config, store *memory.Store, repos repomanager.RepositoryManager) *testEnv {
	t.Helper()
	us, err := NewUserService(dbx.NopTransactor{}, repos, cfg)
	require.NoError(t, err)
	return &testEnv{
		store: store,
		repos: repos,
		users: us,
		tasks: NewTaskService(dbx.NopTransactor{}, repos),
	}
}

func (e *testEnv) signup(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := e.users.Signup(context.Background(), Candidate{Name: "Ann", Email: email, Password: "s3cr3t12"})
	require.NoError(t, err)
	return res
}

func (e *testEnv) login(t *testing.T, email string) *AuthResult {
	t.Helper()
	res, err := e.users.Login(context.Background(), email, "s3cr3t12")
	require.NoError(t, err)
	return res
}

func (e *testEnv) auth(t *testing.T, token string) *AuthContext {
	t.Helper()
	ac, err := e.users.Authenticate(context.Background(), token)
	require.NoError(t, err)
	return ac
}

var errBoom = errors.New("boom")

// failingManager wraps a working manager and swaps in failing repositories.
type failingManager struct {
	repomanager.RepositoryManager
	tasks  tasks.Repository
	tokens tokens.Repository
}

func (m *failingManager) Tasks(db dbx.DBTX) tasks.Repository {
	if m.tasks != nil {
		return m.tasks
	}
	return m.RepositoryManager.Tasks(db)
}

func (m *failingManager) Tokens(db dbx.DBTX) tokens.Repository {
	if m.tokens != nil {
		return m.tokens
	}
	return m.RepositoryManager.Tokens(db)
}

type failingTasksRepo struct {
	tasks.Repository
}

func (failingTasksRepo) DeleteByOwner(context.Context, string) (int64, error) { return 0, errBoom }
func (failingTasksRepo) List(context.Context, string, models.TaskFilter) ([]*models.Task, error) {
	return nil, errBoom
}

type failingTokensRepo struct {
	tokens.Repository
}

func (failingTokensRepo) Create(context.Context, string, string) error { return errBoom }
func (failingTokensRepo) ListByUser(context.Context, string) ([]string, error) {
	return nil, errBoom
}

type fakeCodec struct {
	token  string
	encErr error
}

func (c fakeCodec) Encode(string) (string, error) { return c.token, c.encErr }
func (c fakeCodec) Decode(string) (string, error) { return "", errBoom }
