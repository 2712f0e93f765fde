// Package pipeline turns addon directories into pushed bundle and index images.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/mt-sre/managed-tenants-cli/pkg/addon"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/buildid"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/bundlebuilder"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/indexer"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/pusher"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/upgradegraph"
)

// ErrValidation marks addons rejected by the upgrade graph validator.
var ErrValidation = errors.New("upgrade graph validation failed")

// Options configure a Pipeline.
type Options struct {
	// Registry prefixes every image, e.g. quay.io/osd-addons.
	Registry string
	// Hash makes tags unique per build. Derived from git, or from the addon
	// content outside a repository, when empty.
	Hash              string
	DryRun            bool
	ForcePush         bool
	SingleBundle      bool
	ContentValidation bool
	// ContainerTool is handed to the index tool. Defaults to the runner's tool.
	ContainerTool string
	BinaryImage   string
	// Workers bounds how many addons are processed concurrently.
	Workers int
	// WorkDir holds temporary build contexts.
	WorkDir string
	// ImageSetEnv, when set, writes an image set for every configured addon
	// promoted to this environment to addonimagesets/<env>/.
	ImageSetEnv string
}

// Result is the outcome of one addon.
type Result struct {
	Addon        string
	Path         string
	Source       addon.SourceKind
	Skipped      bool
	UniqueName   string
	Bundles      []image.Reference
	IndexImage   image.Reference
	IndexDigest  digest.Digest
	ImageSets    []string
	// MetadataFiles are the managed-tenants metadata files tracking the
	// configured addons, limited to ImageSetEnv when set.
	MetadataFiles []string
	Err           error
}

// DigestResolver pins a pushed tag to its digest.
type DigestResolver interface {
	Digest(ctx context.Context, ref image.Reference) (image.Reference, error)
}

type Pipeline struct {
	opts     Options
	runner   containertools.CommandRunner
	tool     indexer.ToolRunner
	checker  pusher.TagChecker
	ensurer  pusher.RepoEnsurer
	resolver DigestResolver
	logger   *logrus.Entry
}

type Option func(*Pipeline)

// WithTagChecker skips pushes of tags that already exist.
func WithTagChecker(checker pusher.TagChecker) Option {
	return func(p *Pipeline) {
		p.checker = checker
	}
}

// WithRepoEnsurer creates missing repositories before pushing.
func WithRepoEnsurer(ensurer pusher.RepoEnsurer) Option {
	return func(p *Pipeline) {
		p.ensurer = ensurer
	}
}

// WithDigestResolver records the digest of every pushed index image.
func WithDigestResolver(resolver DigestResolver) Option {
	return func(p *Pipeline) {
		p.resolver = resolver
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func New(runner containertools.CommandRunner, tool indexer.ToolRunner, opts Options, options ...Option) (*Pipeline, error) {
	if runner == nil {
		return nil, errors.New("a container command runner is required")
	}
	if tool == nil {
		return nil, errors.New("an index tool is required")
	}
	if opts.Registry == "" {
		return nil, errors.New("invalid empty image registry")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ContainerTool == "" {
		opts.ContainerTool = runner.GetToolName()
	}
	if opts.BinaryImage == "" {
		opts.BinaryImage = indexer.DefaultBinaryImage
	}

	p := &Pipeline{
		opts:   opts,
		runner: runner,
		tool:   tool,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return p, nil
}

// newPusher returns a Pusher owning its own set of ensured repositories.
func (p *Pipeline) newPusher() *pusher.Pusher {
	opts := []pusher.Option{
		pusher.WithForce(p.opts.ForcePush),
		pusher.WithLogger(p.logger),
	}
	if p.checker != nil {
		opts = append(opts, pusher.WithTagChecker(p.checker))
	}
	if p.ensurer != nil {
		opts = append(opts, pusher.WithRepoEnsurer(p.ensurer))
	}
	return pusher.New(p.runner, opts...)
}

// Run processes a single addon directory.
func (p *Pipeline) Run(ctx context.Context, addonDir string) Result {
	return p.run(ctx, p.newPusher(), addonDir)
}

// RunAll processes every addon directory. A failing addon does not stop the
// others; the returned error aggregates every failure. Results keep the order
// of addonDirs.
func (p *Pipeline) RunAll(ctx context.Context, addonDirs []string) ([]Result, error) {
	results := make([]Result, len(addonDirs))

	pushers := make(chan *pusher.Pusher, p.opts.Workers)
	for i := 0; i < p.opts.Workers; i++ {
		pushers <- p.newPusher()
	}

	g := errgroup.Group{}
	g.SetLimit(p.opts.Workers)
	for i, dir := range addonDirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Addon: filepath.Base(dir), Path: dir, Err: err}
				return nil
			}
			w := <-pushers
			defer func() { pushers <- w }()
			results[i] = p.run(ctx, w, dir)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("addon %s: %w", res.Addon, res.Err))
		}
	}
	return results, utilerrors.NewAggregate(errs)
}

func (p *Pipeline) run(ctx context.Context, psh *pusher.Pusher, addonDir string) Result {
	res := Result{Addon: filepath.Base(addonDir), Path: addonDir}
	logger := p.logger.WithField("addon", res.Addon)

	source, err := addon.ResolveSource(addonDir)
	if err != nil {
		res.Err = err
		return res
	}
	res.Source = source.Kind
	if source.Kind != addon.SourceBundles {
		logger.WithField("source", source.Kind.String()).Info("addon is not built from bundles, skipping")
		res.Skipped = true
		return res
	}

	a, err := addon.Load(addonDir,
		addon.WithSingleBundle(p.opts.SingleBundle),
		addon.WithContentValidation(p.opts.ContentValidation),
		addon.WithLogger(logger),
	)
	if err != nil {
		res.Err = err
		return res
	}

	validator := upgradegraph.NewValidator(
		upgradegraph.WithSingleBundle(p.opts.SingleBundle),
		upgradegraph.WithLogger(logger),
	)
	if vres := validator.ValidateAddon(a); !vres.Valid() {
		res.Err = fmt.Errorf("%w: %v", ErrValidation, vres.Err())
		return res
	}

	hash, err := p.hash(addonDir, logger)
	if err != nil {
		res.Err = err
		return res
	}
	res.UniqueName = a.UniqueName(hash)
	if a.Config != nil {
		res.MetadataFiles = a.Config.MetadataPaths(p.opts.ImageSetEnv)
	}
	logger = logger.WithField("build", res.UniqueName)

	builder, err := bundlebuilder.New(p.runner, p.opts.Registry, hash,
		bundlebuilder.WithPusher(psh),
		bundlebuilder.WithDryRun(p.opts.DryRun),
		bundlebuilder.WithWorkDir(p.opts.WorkDir),
		bundlebuilder.WithLogger(logger),
	)
	if err != nil {
		res.Err = err
		return res
	}

	bundles := a.AllBundles()
	if res.Bundles, err = builder.BuildAll(ctx, bundles); err != nil {
		res.Err = err
		return res
	}
	if err := builder.PushAll(ctx, bundles); err != nil {
		res.Err = err
		return res
	}

	adder := indexer.NewIndexAdder(p.tool, p.opts.Registry,
		indexer.WithPusher(psh),
		indexer.WithDryRun(p.opts.DryRun),
		indexer.WithContainerTool(p.opts.ContainerTool),
		indexer.WithBinaryImage(p.opts.BinaryImage),
		indexer.WithLogger(logger),
	)
	res.IndexImage, err = adder.AddToIndex(ctx, indexer.AddToIndexRequest{
		AddonName: a.Name,
		Hash:      hash,
		Bundles:   res.Bundles,
	})
	if err != nil {
		res.Err = err
		return res
	}

	indexRef := res.IndexImage
	if !p.opts.DryRun && p.resolver != nil {
		pinned, err := p.resolver.Digest(ctx, res.IndexImage)
		if err != nil {
			res.Err = err
			return res
		}
		res.IndexDigest = pinned.Digest()
		indexRef = pinned
	}

	if p.opts.ImageSetEnv != "" {
		sets := NewImageSets(a, indexRef, p.opts.ImageSetEnv)
		if len(sets) == 0 {
			logger.WithField("env", p.opts.ImageSetEnv).Info("no configured addon is promoted to this environment, no image set written")
		}
		for _, set := range sets {
			path, err := WriteImageSet(addonDir, p.opts.ImageSetEnv, set)
			if err != nil {
				res.Err = err
				return res
			}
			res.ImageSets = append(res.ImageSets, path)
		}
	}

	logger.WithField("image", res.IndexImage.String()).Info("addon built")
	return res
}

func (p *Pipeline) hash(addonDir string, logger *logrus.Entry) (string, error) {
	if p.opts.Hash != "" {
		return p.opts.Hash, nil
	}
	hash, err := buildid.FromGit(addonDir)
	if err == nil {
		return hash, nil
	}
	logger.WithError(err).Debug("no git build id, hashing addon content")
	return buildid.FromContent(addonDir)
}
