package bundlebuilder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mt-sre/managed-tenants-cli/internal/testutil"
	"github.com/mt-sre/managed-tenants-cli/pkg/bundle"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools/containertoolsfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/bundlebuilder"
)

const inspectOutput = `[{"Size": 4233, "Config": {"Labels": {}}}]`

type recordingPusher struct {
	pushed []string
	err    error
}

func (p *recordingPusher) Push(_ context.Context, ref image.Reference, ensureRepo bool) error {
	if p.err != nil {
		return p.err
	}
	if !ensureRepo {
		return errors.New("bundle pushes must ensure their repository")
	}
	p.pushed = append(p.pushed, ref.String())
	return nil
}

func loadBundle(t *testing.T, addonDir string, f testutil.BundleFixture) *bundle.Bundle {
	t.Helper()

	dir := testutil.WriteBundle(t, addonDir, f)
	addon := filepath.Base(addonDir)
	operator := addon
	if f.Operator != "" {
		operator = f.Operator
	}
	bd, err := bundle.New(addon, operator, dir)
	require.NoError(t, err)
	return bd
}

func newRunner() *containertoolsfakes.FakeCommandRunner {
	runner := &containertoolsfakes.FakeCommandRunner{}
	runner.GetToolNameReturns("docker")
	runner.InspectReturns([]byte(inspectOutput), nil)
	return runner
}

func TestNew(t *testing.T) {
	_, err := bundlebuilder.New(newRunner(), "", "abc1234")
	require.Error(t, err)

	_, err = bundlebuilder.New(newRunner(), "quay.io/osd-addons", "")
	require.Error(t, err)
}

func TestTag(t *testing.T) {
	addonDir := filepath.Join(t.TempDir(), "reference-addon")
	main := loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.1.0"})
	dep := loadBundle(t, addonDir, testutil.BundleFixture{Operator: "prometheus", Dir: "1.2.3"})

	b, err := bundlebuilder.New(newRunner(), "quay.io/osd-addons/", "abc1234")
	require.NoError(t, err)

	ref, err := b.Tag(main)
	require.NoError(t, err)
	require.Equal(t, "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234", ref.String())

	ref, err = b.Tag(dep)
	require.NoError(t, err)
	require.Equal(t, "quay.io/osd-addons/reference-addon-prometheus-bundle:1.2.3-abc1234", ref.String())
}

func TestBuild(t *testing.T) {
	addonDir := filepath.Join(t.TempDir(), "reference-addon")
	bd := loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.1.0"})

	runner := newRunner()
	runner.BuildCalls(func(_ context.Context, o containertools.BuildOptions) error {
		// the staging context only exists while the build runs
		dockerfile, err := os.ReadFile(o.Dockerfile())
		require.NoError(t, err)
		require.Equal(t, "FROM scratch\nCOPY manifests /manifests/\nCOPY metadata /metadata/\n", string(dockerfile))
		require.FileExists(t, filepath.Join(o.Context(), "manifests", "reference-addon.clusterserviceversion.yaml"))
		require.FileExists(t, filepath.Join(o.Context(), "metadata", "annotations.yaml"))
		return nil
	})

	b, err := bundlebuilder.New(runner, "quay.io/osd-addons", "abc1234",
		bundlebuilder.WithWorkDir(t.TempDir()),
		bundlebuilder.WithLogger(logrus.NewEntry(logrus.New())),
	)
	require.NoError(t, err)

	ref, err := b.Build(context.Background(), bd)
	require.NoError(t, err)
	require.Equal(t, "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234", ref.String())

	require.Equal(t, 1, runner.BuildCallCount())
	_, opts := runner.BuildArgsForCall(0)
	require.Equal(t, []string{ref.String()}, opts.Tags())
	require.Equal(t, bd.Annotations, opts.Labels())
	require.NoDirExists(t, opts.Context())

	_, inspected := runner.InspectArgsForCall(0)
	require.Equal(t, ref.String(), inspected)

	got, ok := bd.Image()
	require.True(t, ok)
	require.Equal(t, ref, got)

	// a bundle is built at most once
	again, err := b.Build(context.Background(), bd)
	require.NoError(t, err)
	require.Equal(t, ref, again)
	require.Equal(t, 1, runner.BuildCallCount())
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		description string
		setup       func(*containertoolsfakes.FakeCommandRunner)
		expected    error
	}{
		{
			description: "EmptyImage",
			setup: func(r *containertoolsfakes.FakeCommandRunner) {
				r.InspectReturns([]byte(`[{"Size": 0}]`), nil)
			},
			expected: bundlebuilder.ErrEmptyImage,
		},
		{
			description: "BuildFails",
			setup: func(r *containertoolsfakes.FakeCommandRunner) {
				r.BuildReturns(errBuild)
			},
			expected: errBuild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			addonDir := filepath.Join(t.TempDir(), "reference-addon")
			bd := loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.1.0"})

			runner := newRunner()
			tt.setup(runner)

			b, err := bundlebuilder.New(runner, "quay.io/osd-addons", "abc1234", bundlebuilder.WithWorkDir(t.TempDir()))
			require.NoError(t, err)

			_, err = b.Build(context.Background(), bd)
			require.ErrorIs(t, err, tt.expected)

			var buildErr *bundlebuilder.BuildError
			require.ErrorAs(t, err, &buildErr)
			require.Equal(t, bd, buildErr.Bundle)

			_, ok := bd.Image()
			require.False(t, ok)
		})
	}
}

var errBuild = errors.New("exit status 125")

func TestBuildAllStopsAtFirstFailure(t *testing.T) {
	addonDir := filepath.Join(t.TempDir(), "reference-addon")
	bundles := []*bundle.Bundle{
		loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.1.0"}),
		loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.2.0", Replaces: "reference-addon.v0.1.0"}),
		loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.3.0", Replaces: "reference-addon.v0.2.0"}),
	}

	runner := newRunner()
	runner.BuildReturnsOnCall(1, errBuild)

	b, err := bundlebuilder.New(runner, "quay.io/osd-addons", "abc1234", bundlebuilder.WithWorkDir(t.TempDir()))
	require.NoError(t, err)

	_, err = b.BuildAll(context.Background(), bundles)
	require.ErrorIs(t, err, errBuild)
	require.Equal(t, 2, runner.BuildCallCount())
}

func TestPushAll(t *testing.T) {
	addonDir := filepath.Join(t.TempDir(), "reference-addon")
	bundles := []*bundle.Bundle{
		loadBundle(t, addonDir, testutil.BundleFixture{Dir: "0.1.0"}),
		loadBundle(t, addonDir, testutil.BundleFixture{Operator: "prometheus", Dir: "1.0.0"}),
	}

	t.Run("DryRun", func(t *testing.T) {
		p := &recordingPusher{}
		b, err := bundlebuilder.New(newRunner(), "quay.io/osd-addons", "abc1234",
			bundlebuilder.WithPusher(p), bundlebuilder.WithDryRun(true))
		require.NoError(t, err)

		require.NoError(t, b.PushAll(context.Background(), bundles))
		require.Empty(t, p.pushed)
	})

	t.Run("NotBuilt", func(t *testing.T) {
		b, err := bundlebuilder.New(newRunner(), "quay.io/osd-addons", "abc1234",
			bundlebuilder.WithPusher(&recordingPusher{}))
		require.NoError(t, err)

		err = b.PushAll(context.Background(), bundles)
		var buildErr *bundlebuilder.BuildError
		require.ErrorAs(t, err, &buildErr)
	})

	t.Run("Push", func(t *testing.T) {
		p := &recordingPusher{}
		b, err := bundlebuilder.New(newRunner(), "quay.io/osd-addons", "abc1234",
			bundlebuilder.WithPusher(p), bundlebuilder.WithWorkDir(t.TempDir()))
		require.NoError(t, err)

		_, err = b.BuildAll(context.Background(), bundles)
		require.NoError(t, err)
		require.NoError(t, b.PushAll(context.Background(), bundles))
		require.Equal(t, []string{
			"quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234",
			"quay.io/osd-addons/reference-addon-prometheus-bundle:1.0.0-abc1234",
		}, p.pushed)
	})
}
