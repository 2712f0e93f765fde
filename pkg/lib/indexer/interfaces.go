//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . ToolRunner
package indexer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

// IndexAdder assembles an index image from already pushed bundle images.
type IndexAdder interface {
	AddToIndex(context.Context, AddToIndexRequest) (image.Reference, error)
}

// ToolRunner runs the index tool with the given arguments.
type ToolRunner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
	String() string
}

// Pusher uploads a built image, optionally ensuring its repository first.
type Pusher interface {
	Push(ctx context.Context, ref image.Reference, ensureRepo bool) error
}

type Option func(*ImageIndexer)

// WithBinaryImage sets the base image the index is built from.
func WithBinaryImage(img string) Option {
	return func(i *ImageIndexer) {
		i.BinaryImage = img
	}
}

// WithContainerTool sets the container tool the index tool builds with.
func WithContainerTool(tool string) Option {
	return func(i *ImageIndexer) {
		i.ContainerTool = tool
	}
}

func WithPusher(p Pusher) Option {
	return func(i *ImageIndexer) {
		i.Pusher = p
	}
}

// WithDryRun builds the index image but never pushes it.
func WithDryRun(dryRun bool) Option {
	return func(i *ImageIndexer) {
		i.DryRun = dryRun
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(i *ImageIndexer) {
		i.Logger = logger
	}
}

// NewIndexAdder is a constructor that returns an IndexAdder tagging index
// images below registry.
func NewIndexAdder(tool ToolRunner, registry string, opts ...Option) IndexAdder {
	i := ImageIndexer{
		Tool:          tool,
		Registry:      registry,
		BinaryImage:   DefaultBinaryImage,
		ContainerTool: "docker",
	}
	for _, opt := range opts {
		opt(&i)
	}
	if i.Logger == nil {
		i.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return i
}
