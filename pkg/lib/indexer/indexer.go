package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mt-sre/managed-tenants-cli/pkg/bundle"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

const (
	// DefaultBinaryImage is a UBI based image shipping opm 1.19.5.
	DefaultBinaryImage = "quay.io/mtsre/opm-ubi:v1.19.5"
	DefaultOpmVersion  = "1.19.5"
)

// ErrEmptyBundles is returned when an index is requested without bundles.
var ErrEmptyBundles = errors.New("invalid empty bundles list")

// Error ties an index build or push failure to the index tag and its content.
type Error struct {
	Tag     string
	Bundles []string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to build index image %s with bundles [%s]: %v", e.Tag, strings.Join(e.Bundles, ", "), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ImageIndexer is a struct implementation of the IndexAdder interface
type ImageIndexer struct {
	Tool          ToolRunner
	Pusher        Pusher
	ContainerTool string
	BinaryImage   string
	Registry      string
	DryRun        bool
	Logger        *logrus.Entry
}

// AddToIndexRequest defines the parameters to send to the AddToIndex API
type AddToIndexRequest struct {
	AddonName string
	Hash      string
	Bundles   []image.Reference
}

// Tag returns the index image reference of an addon for the given build hash.
func (i ImageIndexer) Tag(addonName, hash string) (image.Reference, error) {
	return image.NewReference(i.Registry, bundle.IndexRepoName(addonName), hash)
}

// AddToIndex builds an index image holding all requested bundles and pushes
// it unless DryRun is set. Bundles must already be available in their registry.
func (i ImageIndexer) AddToIndex(ctx context.Context, request AddToIndexRequest) (image.Reference, error) {
	if len(request.Bundles) == 0 {
		return image.Reference{}, ErrEmptyBundles
	}

	bundles := make([]string, 0, len(request.Bundles))
	for _, b := range request.Bundles {
		bundles = append(bundles, b.String())
	}

	tag, err := i.Tag(request.AddonName, request.Hash)
	if err != nil {
		return image.Reference{}, &Error{Bundles: bundles, Err: err}
	}
	wrap := func(err error) error {
		return &Error{Tag: tag.String(), Bundles: bundles, Err: err}
	}

	logger := i.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithFields(logrus.Fields{
		"addon": request.AddonName,
		"image": tag.String(),
	})
	logger.Infof("building index image with %d bundles", len(bundles))

	if _, err := i.Tool.Run(ctx, i.args(tag, bundles)...); err != nil {
		return image.Reference{}, wrap(fmt.Errorf("%s: %w", i.Tool, err))
	}

	if i.DryRun {
		logger.Info("dry-run: skipping index image push")
		return tag, nil
	}
	if i.Pusher == nil {
		return image.Reference{}, wrap(errors.New("no pusher configured"))
	}
	if err := i.Pusher.Push(ctx, tag, true); err != nil {
		return image.Reference{}, wrap(err)
	}
	return tag, nil
}

func (i ImageIndexer) args(tag image.Reference, bundles []string) []string {
	return []string{
		"index", "add",
		"--container-tool", i.ContainerTool,
		"--binary-image", i.BinaryImage,
		"--permissive",
		"--bundles", strings.Join(bundles, ","),
		"--tag", tag.String(),
	}
}
