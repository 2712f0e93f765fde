package indexer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mt-sre/managed-tenants-cli/pkg/containertools/containertoolsfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/indexer"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/indexer/indexerfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/pusher"
)

var bundles = []image.Reference{
	image.MustParseReference("quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234"),
	image.MustParseReference("quay.io/osd-addons/reference-addon-bundle:0.2.0-abc1234"),
	image.MustParseReference("quay.io/osd-addons/reference-addon-prometheus-bundle:1.0.0-abc1234"),
}

func TestAddToIndex(t *testing.T) {
	tool := &indexerfakes.FakeToolRunner{}
	runner := &containertoolsfakes.FakeCommandRunner{}

	adder := indexer.NewIndexAdder(tool, "quay.io/osd-addons",
		indexer.WithPusher(pusher.New(runner)),
		indexer.WithContainerTool("podman"),
	)

	ref, err := adder.AddToIndex(context.Background(), indexer.AddToIndexRequest{
		AddonName: "reference-addon",
		Hash:      "abc1234",
		Bundles:   bundles,
	})
	require.NoError(t, err)
	require.Equal(t, "quay.io/osd-addons/reference-addon-index:abc1234", ref.String())

	require.Equal(t, 1, tool.RunCallCount())
	_, args := tool.RunArgsForCall(0)
	require.Equal(t, []string{
		"index", "add",
		"--container-tool", "podman",
		"--binary-image", indexer.DefaultBinaryImage,
		"--permissive",
		"--bundles", "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234," +
			"quay.io/osd-addons/reference-addon-bundle:0.2.0-abc1234," +
			"quay.io/osd-addons/reference-addon-prometheus-bundle:1.0.0-abc1234",
		"--tag", "quay.io/osd-addons/reference-addon-index:abc1234",
	}, args)

	require.Equal(t, 1, runner.PushCallCount())
	_, pushed := runner.PushArgsForCall(0)
	require.Equal(t, ref.String(), pushed)
}

func TestAddToIndexEmpty(t *testing.T) {
	tool := &indexerfakes.FakeToolRunner{}
	adder := indexer.NewIndexAdder(tool, "quay.io/osd-addons")

	_, err := adder.AddToIndex(context.Background(), indexer.AddToIndexRequest{
		AddonName: "reference-addon",
		Hash:      "abc1234",
	})
	require.ErrorIs(t, err, indexer.ErrEmptyBundles)
	require.Zero(t, tool.RunCallCount())
}

func TestAddToIndexDryRun(t *testing.T) {
	tool := &indexerfakes.FakeToolRunner{}
	runner := &containertoolsfakes.FakeCommandRunner{}

	adder := indexer.NewIndexAdder(tool, "quay.io/osd-addons",
		indexer.WithPusher(pusher.New(runner)),
		indexer.WithDryRun(true),
	)

	_, err := adder.AddToIndex(context.Background(), indexer.AddToIndexRequest{
		AddonName: "reference-addon",
		Hash:      "abc1234",
		Bundles:   bundles,
	})
	require.NoError(t, err)
	require.Equal(t, 1, tool.RunCallCount())
	require.Zero(t, runner.PushCallCount())
}

func TestAddToIndexWithoutLogger(t *testing.T) {
	tool := &indexerfakes.FakeToolRunner{}
	adder := indexer.ImageIndexer{
		Tool:          tool,
		ContainerTool: "docker",
		BinaryImage:   indexer.DefaultBinaryImage,
		Registry:      "quay.io/osd-addons",
		DryRun:        true,
	}

	ref, err := adder.AddToIndex(context.Background(), indexer.AddToIndexRequest{
		AddonName: "reference-addon",
		Hash:      "abc1234",
		Bundles:   bundles,
	})
	require.NoError(t, err)
	require.Equal(t, "quay.io/osd-addons/reference-addon-index:abc1234", ref.String())
	require.Equal(t, 1, tool.RunCallCount())
}

func TestAddToIndexErrors(t *testing.T) {
	tests := []struct {
		description string
		setup       func(*indexerfakes.FakeToolRunner, *containertoolsfakes.FakeCommandRunner)
		expected    string
	}{
		{
			description: "ToolFails",
			setup: func(tool *indexerfakes.FakeToolRunner, _ *containertoolsfakes.FakeCommandRunner) {
				tool.StringReturns("opm 1.19.5")
				tool.RunReturns([]byte("error"), errors.New("exit status 1"))
			},
			expected: "opm 1.19.5: exit status 1",
		},
		{
			description: "PushFails",
			setup: func(_ *indexerfakes.FakeToolRunner, runner *containertoolsfakes.FakeCommandRunner) {
				runner.PushReturns(errors.New("denied"))
			},
			expected: "denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			tool := &indexerfakes.FakeToolRunner{}
			runner := &containertoolsfakes.FakeCommandRunner{}
			tt.setup(tool, runner)

			adder := indexer.NewIndexAdder(tool, "quay.io/osd-addons", indexer.WithPusher(pusher.New(runner)))
			_, err := adder.AddToIndex(context.Background(), indexer.AddToIndexRequest{
				AddonName: "reference-addon",
				Hash:      "abc1234",
				Bundles:   bundles,
			})
			require.ErrorContains(t, err, tt.expected)

			var indexErr *indexer.Error
			require.ErrorAs(t, err, &indexErr)
			require.Equal(t, "quay.io/osd-addons/reference-addon-index:abc1234", indexErr.Tag)
			require.Len(t, indexErr.Bundles, 3)
		})
	}
}
