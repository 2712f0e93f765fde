// Package changes finds the addons touched by a range of git commits.
package changes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"
)

const (
	PreviousCommitEnv = "GIT_PREVIOUS_COMMIT"
	CommitEnv         = "GIT_COMMIT"

	// DefaultBaseRevision is the branch pull requests are compared against.
	DefaultBaseRevision = "refs/remotes/origin/main"
)

type Mode int

const (
	// ModePR compares HEAD with the main branch of origin.
	ModePR Mode = iota
	// ModeDeploy compares GIT_PREVIOUS_COMMIT with GIT_COMMIT.
	ModeDeploy
)

func (m Mode) String() string {
	switch m {
	case ModePR:
		return "pr"
	case ModeDeploy:
		return "deploy"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Detector lists addon directories containing at least one file changed
// between the merge-base of Base and Head, and Head.
type Detector struct {
	AddonsDir string
	Mode      Mode
	// Base and Head override the revisions implied by Mode.
	Base   string
	Head   string
	Logger *logrus.Entry
}

func (d *Detector) revisions() (string, string, error) {
	base, head := d.Base, d.Head
	switch d.Mode {
	case ModePR:
		if base == "" {
			base = DefaultBaseRevision
		}
		if head == "" {
			head = "HEAD"
		}
	case ModeDeploy:
		if base == "" {
			base = os.Getenv(PreviousCommitEnv)
		}
		if head == "" {
			head = os.Getenv(CommitEnv)
		}
		if base == "" || head == "" {
			return "", "", fmt.Errorf("%s and %s must be set in deploy mode", PreviousCommitEnv, CommitEnv)
		}
	default:
		return "", "", fmt.Errorf("unknown change detection mode %s", d.Mode)
	}
	return base, head, nil
}

// ChangedFiles returns the absolute paths of files changed in the commit range.
func (d *Detector) ChangedFiles(ctx context.Context) ([]string, error) {
	logger := d.logger()

	base, head, err := d.revisions()
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(d.AddonsDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("unable to open git repository at %s: %w", d.AddonsDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	baseCommit, err := resolveCommit(repo, base)
	if err != nil {
		return nil, err
	}
	headCommit, err := resolveCommit(repo, head)
	if err != nil {
		return nil, err
	}

	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return nil, fmt.Errorf("unable to find merge base of %s and %s: %w", base, head, err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%s and %s have no common ancestor", base, head)
	}
	logger.WithFields(logrus.Fields{
		"mode":       d.Mode.String(),
		"merge-base": bases[0].Hash.String(),
		"head":       headCommit.Hash.String(),
	}).Debug("detecting changed files")

	fromTree, err := bases[0].Tree()
	if err != nil {
		return nil, err
	}
	toTree, err := headCommit.Tree()
	if err != nil {
		return nil, err
	}
	diff, err := fromTree.DiffContext(ctx, toTree)
	if err != nil {
		return nil, err
	}

	files := sets.New[string]()
	for _, change := range diff {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" {
				files.Insert(filepath.Join(root, filepath.FromSlash(name)))
			}
		}
	}
	return sets.List(files), nil
}

// ChangedAddons returns the sorted addon directories below AddonsDir that
// contain a changed file.
func (d *Detector) ChangedAddons(ctx context.Context) ([]string, error) {
	addonsDir, err := filepath.Abs(d.AddonsDir)
	if err != nil {
		return nil, err
	}
	addonsDir, err = filepath.EvalSymlinks(addonsDir)
	if err != nil {
		return nil, err
	}

	files, err := d.ChangedFiles(ctx)
	if err != nil {
		return nil, err
	}

	addons := sets.New[string]()
	for _, file := range files {
		rel, err := filepath.Rel(addonsDir, file)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		parts := strings.SplitN(rel, string(filepath.Separator), 2)
		if len(parts) < 2 {
			// a file directly inside the addons dir is not an addon
			continue
		}
		dir := filepath.Join(addonsDir, parts[0])
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			addons.Insert(dir)
		}
	}

	changed := sets.List(addons)
	d.logger().Infof("%d changed addons", len(changed))
	return changed, nil
}

func (d *Detector) logger() *logrus.Entry {
	if d.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Logger
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("unable to resolve revision %s: %w", rev, err)
	}
	return repo.CommitObject(*hash)
}
