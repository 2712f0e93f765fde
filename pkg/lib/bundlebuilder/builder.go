package bundlebuilder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/sirupsen/logrus"

	"github.com/mt-sre/managed-tenants-cli/pkg/bundle"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

const defaultDockerfileName = "bundle.Dockerfile"

// ErrEmptyImage is returned when a freshly built image reports a size of zero.
var ErrEmptyImage = errors.New("built image is empty")

// BuildError ties a build or push failure to the bundle it happened on.
type BuildError struct {
	Bundle *bundle.Bundle
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build bundle %s: %v", e.Bundle, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Pusher uploads a built image, optionally ensuring its repository first.
type Pusher interface {
	Push(ctx context.Context, ref image.Reference, ensureRepo bool) error
}

// Builder turns bundle directories into bundle images.
type Builder struct {
	CommandRunner       containertools.CommandRunner
	ImageDataReader     containertools.ImageDataReader
	DockerfileGenerator *containertools.BundleDockerfileGenerator
	Pusher              Pusher
	Logger              *logrus.Entry

	registry string
	hash     string
	dryRun   bool
	workDir  string
}

type Option func(*Builder)

func WithPusher(p Pusher) Option {
	return func(b *Builder) {
		b.Pusher = p
	}
}

// WithDryRun builds images but never pushes them.
func WithDryRun(dryRun bool) Option {
	return func(b *Builder) {
		b.dryRun = dryRun
	}
}

// WithWorkDir sets the directory staging build contexts are created in.
func WithWorkDir(dir string) Option {
	return func(b *Builder) {
		b.workDir = dir
	}
}

func WithImageDataReader(r containertools.ImageDataReader) Option {
	return func(b *Builder) {
		b.ImageDataReader = r
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(b *Builder) {
		b.Logger = logger
	}
}

// New returns a Builder tagging images as {registry}/{repo}:{version}-{hash}.
func New(runner containertools.CommandRunner, registry, hash string, opts ...Option) (*Builder, error) {
	if registry == "" {
		return nil, errors.New("invalid empty image registry")
	}
	if hash == "" {
		return nil, errors.New("invalid empty build hash")
	}

	b := &Builder{
		CommandRunner: runner,
		registry:      registry,
		hash:          hash,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.Logger == nil {
		b.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if b.ImageDataReader == nil {
		b.ImageDataReader = containertools.NewImageInspector(runner, b.Logger)
	}
	if b.DockerfileGenerator == nil {
		b.DockerfileGenerator = containertools.NewBundleDockerfileGenerator(b.Logger)
	}
	return b, nil
}

// Tag returns the image reference bd is built as.
func (b *Builder) Tag(bd *bundle.Bundle) (image.Reference, error) {
	return image.NewReference(b.registry, bd.RepoName(), fmt.Sprintf("%s-%s", bd.Version, b.hash))
}

// Build builds the image of bd and records it on the bundle. Bundles that
// already carry an image are not rebuilt.
func (b *Builder) Build(ctx context.Context, bd *bundle.Bundle) (image.Reference, error) {
	if ref, ok := bd.Image(); ok {
		b.Logger.WithField("bundle", bd.String()).Debug("bundle image already built")
		return ref, nil
	}

	ref, err := b.Tag(bd)
	if err != nil {
		return image.Reference{}, &BuildError{Bundle: bd, Err: err}
	}
	if err := b.build(ctx, bd, ref); err != nil {
		return image.Reference{}, &BuildError{Bundle: bd, Err: err}
	}
	if err := bd.SetImage(ref); err != nil {
		return image.Reference{}, &BuildError{Bundle: bd, Err: err}
	}
	return ref, nil
}

func (b *Builder) build(ctx context.Context, bd *bundle.Bundle, ref image.Reference) error {
	logger := b.Logger.WithFields(logrus.Fields{
		"bundle": bd.String(),
		"image":  ref.String(),
	})

	buildDir, err := os.MkdirTemp(b.workDir, "bundle_tmp")
	if err != nil {
		return err
	}
	defer os.RemoveAll(buildDir)

	for _, dir := range []string{bundle.ManifestsDir, bundle.MetadataDir} {
		if err := copy.Copy(filepath.Join(bd.Path, dir), filepath.Join(buildDir, dir)); err != nil {
			return fmt.Errorf("unable to stage %s: %w", dir, err)
		}
	}

	dockerfile := filepath.Join(buildDir, defaultDockerfileName)
	content := b.DockerfileGenerator.GenerateBundleDockerfile(bundle.ManifestsDir, bundle.MetadataDir)
	if err := os.WriteFile(dockerfile, []byte(content), 0o644); err != nil {
		return err
	}

	opts := containertools.DefaultBuildOptions()
	opts.SetContext(buildDir)
	opts.SetDockerfile(dockerfile)
	opts.AddTag(ref.String())
	for k, v := range bd.Annotations {
		opts.AddLabel(k, v)
	}

	logger.Info("building bundle image")
	if err := b.CommandRunner.Build(ctx, opts); err != nil {
		return err
	}

	data, err := b.ImageDataReader.GetImageData(ctx, ref.String())
	if err != nil {
		return err
	}
	if data.Size == 0 {
		return fmt.Errorf("%s: %w", ref, ErrEmptyImage)
	}
	logger.WithField("size", data.Size).Debug("bundle image built")

	return nil
}

// BuildAll builds every bundle in order and stops at the first failure.
func (b *Builder) BuildAll(ctx context.Context, bundles []*bundle.Bundle) ([]image.Reference, error) {
	refs := make([]image.Reference, 0, len(bundles))
	for _, bd := range bundles {
		ref, err := b.Build(ctx, bd)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// PushAll pushes the images of the given bundles. It is a no-op in dry-run.
func (b *Builder) PushAll(ctx context.Context, bundles []*bundle.Bundle) error {
	if b.dryRun {
		b.Logger.Info("dry-run: skipping bundle image push")
		return nil
	}
	if b.Pusher == nil {
		return errors.New("no pusher configured")
	}

	for _, bd := range bundles {
		ref, ok := bd.Image()
		if !ok {
			return &BuildError{Bundle: bd, Err: errors.New("bundle image was not built")}
		}
		if err := b.Pusher.Push(ctx, ref, true); err != nil {
			return &BuildError{Bundle: bd, Err: err}
		}
	}
	return nil
}
