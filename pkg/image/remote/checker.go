// Package remote answers questions about images stored in OCI registries.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/docker/cli/cli/config"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"
	"oras.land/oras-go/v2/errdef"
	orasremote "oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

// TagChecker resolves image tags against their registry.
type TagChecker struct {
	plainHTTP  bool
	configDir  string
	httpClient *http.Client
	client     *auth.Client
	logger     *logrus.Entry
}

type Option func(*TagChecker)

// WithPlainHTTP talks to registries over http instead of https.
func WithPlainHTTP(plain bool) Option {
	return func(c *TagChecker) {
		c.plainHTTP = plain
	}
}

// WithDockerConfigDir reads registry credentials from dir/config.json.
// Defaults to the docker cli config directory.
func WithDockerConfigDir(dir string) Option {
	return func(c *TagChecker) {
		c.configDir = dir
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *TagChecker) {
		c.httpClient = client
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *TagChecker) {
		c.logger = logger
	}
}

func NewTagChecker(opts ...Option) (*TagChecker, error) {
	c := &TagChecker{
		httpClient: retry.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.configDir == "" {
		c.configDir = config.Dir()
	}

	store, err := credentials.NewStore(filepath.Join(c.configDir, config.ConfigFileName), credentials.StoreOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to load registry credentials from %s: %w", c.configDir, err)
	}

	c.client = &auth.Client{
		Client:     c.httpClient,
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(store),
	}
	return c, nil
}

// Resolve returns the descriptor the tag of ref points to.
func (c *TagChecker) Resolve(ctx context.Context, ref image.Reference) (ocispec.Descriptor, error) {
	repo, err := orasremote.NewRepository(ref.Repository())
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	repo.Client = c.client
	repo.PlainHTTP = c.plainHTTP

	target := ref.Tag()
	if ref.Digest() != "" {
		target = ref.Digest().String()
	}
	if target == "" {
		return ocispec.Descriptor{}, fmt.Errorf("image reference %s has neither tag nor digest", ref)
	}

	return repo.Resolve(ctx, target)
}

// Exists reports whether the tag of ref is present in its registry.
func (c *TagChecker) Exists(ctx context.Context, ref image.Reference) (bool, error) {
	desc, err := c.Resolve(ctx, ref)
	switch {
	case errors.Is(err, errdef.ErrNotFound):
		c.logger.WithField("image", ref.String()).Debug("image not found in registry")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("unable to resolve %s: %w", ref, err)
	}

	c.logger.WithFields(logrus.Fields{
		"image":  ref.String(),
		"digest": desc.Digest.String(),
	}).Debug("image found in registry")
	return true, nil
}

// Digest returns ref pinned to the digest its tag currently points to.
func (c *TagChecker) Digest(ctx context.Context, ref image.Reference) (image.Reference, error) {
	desc, err := c.Resolve(ctx, ref)
	if err != nil {
		return image.Reference{}, fmt.Errorf("unable to resolve %s: %w", ref, err)
	}
	return ref.WithDigest(desc.Digest)
}
