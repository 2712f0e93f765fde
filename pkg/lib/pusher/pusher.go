//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . RepoEnsurer
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . TagChecker
package pusher

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

// RepoEnsurer creates an image repository if it does not exist yet.
type RepoEnsurer interface {
	EnsureRepo(ctx context.Context, name string) error
}

// TagChecker reports whether an image tag is already present in its registry.
type TagChecker interface {
	Exists(ctx context.Context, ref image.Reference) (bool, error)
}

// ImagePusher uploads a locally built image.
type ImagePusher interface {
	Push(ctx context.Context, image string) error
}

// Pusher uploads images at most once per tag unless forced, and makes sure
// their repositories exist first. A Pusher is not meant to be shared between
// concurrent pipelines; each owns its set of ensured repositories.
type Pusher struct {
	runner  ImagePusher
	checker TagChecker
	ensurer RepoEnsurer
	force   bool
	logger  *logrus.Entry

	mu   sync.Mutex
	seen sets.Set[string]
}

type Option func(*Pusher)

// WithTagChecker skips pushes of tags that already exist remotely.
func WithTagChecker(checker TagChecker) Option {
	return func(p *Pusher) {
		p.checker = checker
	}
}

// WithRepoEnsurer creates missing repositories before pushing.
func WithRepoEnsurer(ensurer RepoEnsurer) Option {
	return func(p *Pusher) {
		p.ensurer = ensurer
	}
}

// WithForce pushes even when the tag already exists.
func WithForce(force bool) Option {
	return func(p *Pusher) {
		p.force = force
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(p *Pusher) {
		p.logger = logger
	}
}

func New(runner ImagePusher, opts ...Option) *Pusher {
	p := &Pusher{
		runner: runner,
		seen:   sets.New[string](),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return p
}

// Push uploads ref. When ensureRepo is set the repository is ensured once per
// Pusher before the first push to it.
func (p *Pusher) Push(ctx context.Context, ref image.Reference, ensureRepo bool) error {
	logger := p.logger.WithField("image", ref.String())

	if ensureRepo {
		if err := p.ensure(ctx, ref); err != nil {
			return fmt.Errorf("unable to ensure repository for %s: %w", ref, err)
		}
	}

	if !p.force && p.checker != nil {
		exists, err := p.checker.Exists(ctx, ref)
		if err != nil {
			return err
		}
		if exists {
			logger.Info("image already exists, skipping push")
			return nil
		}
	}

	logger.Info("pushing image")
	if err := p.runner.Push(ctx, ref.String()); err != nil {
		return fmt.Errorf("unable to push %s: %w", ref, err)
	}
	return nil
}

func (p *Pusher) ensure(ctx context.Context, ref image.Reference) error {
	if p.ensurer == nil {
		return nil
	}

	name := ref.Name()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen.Has(name) {
		return nil
	}
	if err := p.ensurer.EnsureRepo(ctx, name); err != nil {
		return err
	}
	p.seen.Insert(name)
	return nil
}
