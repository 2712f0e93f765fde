package testutil

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway repository for change detection tests.
type GitRepo struct {
	Dir  string
	Repo *git.Repository
	t    TB
}

func InitGitRepo(t TB) *GitRepo {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &GitRepo{Dir: dir, Repo: repo, t: t}
}

// Commit writes files (path relative to the repository root to content) and
// commits them.
func (r *GitRepo) Commit(msg string, files map[string]string) plumbing.Hash {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	for path, content := range files {
		full := filepath.Join(r.Dir, path)
		require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(path)
		require.NoError(r.t, err)
	}

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "mtsre", Email: "mtsre@example.com", When: time.Now()},
	})
	require.NoError(r.t, err)
	return hash
}

// SetRemoteBranch points refs/remotes/<remote>/<branch> at hash.
func (r *GitRepo) SetRemoteBranch(remote, branch string, hash plumbing.Hash) {
	r.t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, branch), hash)
	require.NoError(r.t, r.Repo.Storer.SetReference(ref))
}
