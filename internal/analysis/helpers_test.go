package analysis

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/hackathon-judge/internal/store"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	RunFunc func(ctx context.Context, question string) (string, error)
	calls   atomic.Int64
}

func (f *fakeAgent) Run(ctx context.Context, question string) (string, error) {
	f.calls.Add(1)
	if f.RunFunc != nil {
		return f.RunFunc(ctx, question)
	}
	return "researched answer", nil
}

type fakeCloner struct {
	files map[string]string
	err   error
	calls atomic.Int64
}

func (f *fakeCloner) Clone(_ context.Context, _ string, dir string) error {
	f.calls.Add(1)
	for name, content := range f.files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return f.err
}

// unmatchedStore reports every analysis update as matching no project.
type unmatchedStore struct {
	*store.MemoryStore
}

func (unmatchedStore) UpdateAnalysis(context.Context, string, store.AnalysisUpdate) (bool, error) {
	return false, nil
}

func newStore(t *testing.T, h *types.Hackathon) *store.MemoryStore {
	t.Helper()
	s, err := store.NewMemoryStore()
	require.NoError(t, err)
	if h != nil {
		require.NoError(t, s.SaveHackathon(context.Background(), h))
	}
	return s
}

func seedProject(t *testing.T, s *store.MemoryStore, theme string) string {
	t.Helper()
	id, err := s.CreateProject(context.Background(), &types.Project{
		ShortDescription: "AI note-taking app",
		LongDescription:  "Transcribes meetings and writes summaries",
		GithubLink:       "https://github.com/example/notes",
		Theme:            theme,
	})
	require.NoError(t, err)
	return id
}

func getProject(t *testing.T, s *store.MemoryStore, id string) *types.Project {
	t.Helper()
	p, err := s.GetProject(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func testOptions() Options {
	return Options{RunTimeout: 5 * time.Second, CallTimeout: 5 * time.Second, Concurrency: 3}
}
