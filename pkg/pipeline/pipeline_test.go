package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/mt-sre/managed-tenants-cli/internal/testutil"
	"github.com/mt-sre/managed-tenants-cli/pkg/addon"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools/containertoolsfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/indexer/indexerfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/pusher/pusherfakes"
	"github.com/mt-sre/managed-tenants-cli/pkg/pipeline"
)

const indexDigest = digest.Digest("sha256:4bd0b3e4b4e4a5ccd9ea19b2fe1e6b2c4a8e4bdc6b1e9c0f4cb7a0f0e8c2c7d1")

type fakeResolver struct{}

func (fakeResolver) Digest(_ context.Context, ref image.Reference) (image.Reference, error) {
	return ref.WithDigest(indexDigest)
}

func pushedImages(runner *containertoolsfakes.FakeCommandRunner) []string {
	var pushed []string
	for i := 0; i < runner.PushCallCount(); i++ {
		_, img := runner.PushArgsForCall(i)
		pushed = append(pushed, img)
	}
	return pushed
}

var _ = Describe("Pipeline", func() {
	var (
		addonsDir string
		runner    *containertoolsfakes.FakeCommandRunner
		tool      *indexerfakes.FakeToolRunner
		ensurer   *pusherfakes.FakeRepoEnsurer
		checker   *pusherfakes.FakeTagChecker
		opts      pipeline.Options
		logger    *logrus.Entry
	)

	writeValidAddon := func(name string) string {
		dir := filepath.Join(addonsDir, name)
		testutil.WriteBundle(GinkgoT(), dir, testutil.BundleFixture{Dir: "0.1.0"})
		testutil.WriteBundle(GinkgoT(), dir, testutil.BundleFixture{Dir: "0.2.0", Replaces: name + ".v0.1.0"})
		testutil.WriteBundle(GinkgoT(), dir, testutil.BundleFixture{Operator: "prometheus", Dir: "1.0.0"})
		return dir
	}

	writeBrokenAddon := func(name string) string {
		dir := filepath.Join(addonsDir, name)
		testutil.WriteBundle(GinkgoT(), dir, testutil.BundleFixture{Dir: "0.1.0"})
		testutil.WriteBundle(GinkgoT(), dir, testutil.BundleFixture{Dir: "0.2.0", Replaces: name + ".v0.0.9"})
		return dir
	}

	newPipeline := func(options ...pipeline.Option) *pipeline.Pipeline {
		options = append([]pipeline.Option{
			pipeline.WithRepoEnsurer(ensurer),
			pipeline.WithTagChecker(checker),
			pipeline.WithLogger(logger),
		}, options...)
		p, err := pipeline.New(runner, tool, opts, options...)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		addonsDir = GinkgoT().TempDir()

		runner = &containertoolsfakes.FakeCommandRunner{}
		runner.GetToolNameReturns("docker")
		runner.InspectReturns([]byte(`[{"Size": 4233}]`), nil)

		tool = &indexerfakes.FakeToolRunner{}
		tool.StringReturns("opm 1.19.5")
		ensurer = &pusherfakes.FakeRepoEnsurer{}
		checker = &pusherfakes.FakeTagChecker{}

		logger = logrus.NewEntry(logrus.New())
		logger.Logger.SetOutput(GinkgoWriter)

		opts = pipeline.Options{
			Registry: "quay.io/osd-addons",
			Hash:     "abc1234",
			WorkDir:  GinkgoT().TempDir(),
		}
	})

	Describe("New", func() {
		It("requires a registry", func() {
			opts.Registry = ""
			_, err := pipeline.New(runner, tool, opts)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Run", func() {
		It("builds, pushes and indexes every bundle of a valid addon", func() {
			dir := writeValidAddon("reference-addon")

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Source).To(Equal(addon.SourceBundles))
			Expect(res.UniqueName).To(Equal("reference-addon-0.2.0-abc1234"))
			Expect(res.IndexImage.String()).To(Equal("quay.io/osd-addons/reference-addon-index:abc1234"))

			var bundles []string
			for _, b := range res.Bundles {
				bundles = append(bundles, b.String())
			}
			Expect(bundles).To(Equal([]string{
				"quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234",
				"quay.io/osd-addons/reference-addon-bundle:0.2.0-abc1234",
				"quay.io/osd-addons/reference-addon-prometheus-bundle:1.0.0-abc1234",
			}))

			Expect(runner.BuildCallCount()).To(Equal(3))
			Expect(pushedImages(runner)).To(Equal(append(bundles, "quay.io/osd-addons/reference-addon-index:abc1234")))

			By("ensuring every repository once")
			var repos []string
			for i := 0; i < ensurer.EnsureRepoCallCount(); i++ {
				_, name := ensurer.EnsureRepoArgsForCall(i)
				repos = append(repos, name)
			}
			Expect(repos).To(Equal([]string{
				"reference-addon-bundle",
				"reference-addon-prometheus-bundle",
				"reference-addon-index",
			}))

			By("passing every bundle to the index tool")
			Expect(tool.RunCallCount()).To(Equal(1))
			_, args := tool.RunArgsForCall(0)
			Expect(args).To(ContainElement("--permissive"))
			Expect(args).To(ContainElement("docker"))
		})

		It("does not push in dry-run", func() {
			opts.DryRun = true
			dir := writeValidAddon("reference-addon")

			res := newPipeline(pipeline.WithDigestResolver(fakeResolver{})).Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(runner.BuildCallCount()).To(Equal(3))
			Expect(tool.RunCallCount()).To(Equal(1))
			Expect(runner.PushCallCount()).To(BeZero())
			Expect(ensurer.EnsureRepoCallCount()).To(BeZero())
			Expect(res.IndexDigest).To(BeEmpty())
		})

		It("skips pushing tags that already exist", func() {
			checker.ExistsReturns(true, nil)
			dir := writeValidAddon("reference-addon")

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(runner.PushCallCount()).To(BeZero())

			opts.ForcePush = true
			res = newPipeline().Run(context.Background(), writeValidAddon("other-addon"))
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(runner.PushCallCount()).To(Equal(4))
		})

		It("stops before building when the upgrade graph is invalid", func() {
			dir := writeBrokenAddon("reference-addon")

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).To(MatchError(pipeline.ErrValidation))
			Expect(res.Err.Error()).To(ContainSubstring("replaces attr refers to a csv thats not present"))
			Expect(runner.BuildCallCount()).To(BeZero())
			Expect(tool.RunCallCount()).To(BeZero())
		})

		It("reports structural errors", func() {
			dir := filepath.Join(addonsDir, "reference-addon")
			Expect(os.MkdirAll(filepath.Join(dir, addon.MainDir, "not-a-version"), 0o755)).To(Succeed())

			res := newPipeline().Run(context.Background(), dir)
			var structErr *addon.StructureError
			Expect(res.Err).To(HaveOccurred())
			Expect(errors.As(res.Err, &structErr)).To(BeTrue())
		})

		It("skips addons that are not built from bundles", func() {
			dir := filepath.Join(addonsDir, "legacy-addon")
			testutil.WriteFile(GinkgoT(), dir, "metadata/stage/addon.yaml", "id: legacy-addon\nindexImage: quay.io/osd-addons/legacy-addon-index:abc\n")

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Skipped).To(BeTrue())
			Expect(res.Source).To(Equal(addon.SourceIndexImage))
			Expect(runner.BuildCallCount()).To(BeZero())
		})

		It("writes an image set pinned to the index digest", func() {
			opts.ImageSetEnv = "stage"
			dir := writeValidAddon("reference-addon")
			testutil.WriteFile(GinkgoT(), dir, "main/config.yaml", `addons:
- name: reference-addon
  environments: [stage]
ocm:
  addOnParameters:
  - id: size
    name: Size
  subscriptionConfig:
    env:
    - name: FOO
      value: bar
`)

			res := newPipeline(pipeline.WithDigestResolver(fakeResolver{})).Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.IndexDigest).To(Equal(indexDigest))
			Expect(res.ImageSets).To(Equal([]string{filepath.Join(dir, "addonimagesets", "stage", "reference-addon.v0.2.0.yaml")}))
			Expect(res.MetadataFiles).To(Equal([]string{"addons/reference-addon/metadata/stage/addon.yaml"}))

			data, err := os.ReadFile(res.ImageSets[0])
			Expect(err).NotTo(HaveOccurred())
			var set map[string]interface{}
			Expect(yaml.Unmarshal(data, &set)).To(Succeed())
			Expect(set).To(HaveKeyWithValue("name", "reference-addon.v0.2.0"))
			Expect(set).To(HaveKeyWithValue("indexImage", "quay.io/osd-addons/reference-addon-index:abc1234@"+indexDigest.String()))
			Expect(set).To(HaveKey("addOnParameters"))
			Expect(set).NotTo(HaveKey("subOperators"))
			Expect(set).To(HaveKeyWithValue("subscriptionConfig", map[string]interface{}{
				"env": []interface{}{map[string]interface{}{"name": "FOO", "value": "bar"}},
			}))
		})

		It("writes one image set per configured addon promoted to the environment", func() {
			opts.ImageSetEnv = "integration"
			dir := writeValidAddon("reference-addon")
			testutil.WriteFile(GinkgoT(), dir, "main/config.yaml", `addons:
- name: reference-addon
  environments: [stage, integration]
- name: reference-addon-internal
  environments: [integration]
- name: reference-addon-preview
  environments: [stage]
`)

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.ImageSets).To(Equal([]string{
				filepath.Join(dir, "addonimagesets", "integration", "reference-addon.v0.2.0.yaml"),
				filepath.Join(dir, "addonimagesets", "integration", "reference-addon-internal.v0.2.0.yaml"),
			}))
			Expect(res.MetadataFiles).To(Equal([]string{
				"addons/reference-addon/metadata/integration/addon.yaml",
				"addons/reference-addon-internal/metadata/integration/addon.yaml",
			}))

			data, err := os.ReadFile(res.ImageSets[1])
			Expect(err).NotTo(HaveOccurred())
			var set map[string]interface{}
			Expect(yaml.Unmarshal(data, &set)).To(Succeed())
			Expect(set).To(HaveKeyWithValue("name", "reference-addon-internal.v0.2.0"))
			Expect(set).To(HaveKeyWithValue("subscriptionConfig", map[string]interface{}{"env": []interface{}{}}))
		})

		It("writes no image set when no configured addon is promoted to the environment", func() {
			opts.ImageSetEnv = "integration"
			dir := writeValidAddon("reference-addon")
			testutil.WriteFile(GinkgoT(), dir, "main/config.yaml", "addons:\n- name: reference-addon\n  environments: [stage]\n")

			res := newPipeline().Run(context.Background(), dir)
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.ImageSets).To(BeEmpty())
			Expect(filepath.Join(dir, "addonimagesets")).NotTo(BeADirectory())
		})
	})

	Describe("RunAll", func() {
		It("isolates failing addons and keeps result order", func() {
			dirs := []string{
				writeValidAddon("a-addon"),
				writeBrokenAddon("b-addon"),
				writeValidAddon("c-addon"),
			}

			results, err := newPipeline().RunAll(context.Background(), dirs)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("addon b-addon"))
			Expect(results).To(HaveLen(3))
			Expect(results[0].Err).NotTo(HaveOccurred())
			Expect(results[1].Err).To(MatchError(pipeline.ErrValidation))
			Expect(results[2].Err).NotTo(HaveOccurred())
			Expect(tool.RunCallCount()).To(Equal(2))
		})

		It("runs addons concurrently with one pusher per worker", func() {
			opts.Workers = 3
			var (
				mu      sync.Mutex
				ensured = map[string]int{}
			)
			ensurer.EnsureRepoCalls(func(_ context.Context, name string) error {
				mu.Lock()
				defer mu.Unlock()
				ensured[name]++
				return nil
			})

			var dirs []string
			for _, name := range []string{"a-addon", "b-addon", "c-addon", "d-addon"} {
				dirs = append(dirs, writeValidAddon(name))
			}

			results, err := newPipeline().RunAll(context.Background(), dirs)
			Expect(err).NotTo(HaveOccurred())
			for i, res := range results {
				Expect(res.Path).To(Equal(dirs[i]))
				Expect(res.IndexImage.Name()).To(Equal(res.Addon + "-index"))
			}
			Expect(runner.BuildCallCount()).To(Equal(12))
			for name, count := range ensured {
				Expect(count).To(Equal(1), name)
			}
		})

		It("writes a report", func() {
			dirs := []string{writeValidAddon("a-addon"), writeBrokenAddon("b-addon")}

			results, _ := newPipeline().RunAll(context.Background(), dirs)
			report := pipeline.NewReport(opts.Hash, opts.DryRun, results)

			path := filepath.Join(GinkgoT().TempDir(), "report.yaml")
			Expect(report.WriteFile(path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			var got pipeline.Report
			Expect(yaml.Unmarshal(data, &got)).To(Succeed())
			Expect(got.Hash).To(Equal("abc1234"))
			Expect(got.Results).To(HaveLen(2))
			Expect(got.Results[0].IndexImage).To(Equal("quay.io/osd-addons/a-addon-index:abc1234"))
			Expect(got.Results[0].Bundles).To(HaveLen(3))
			Expect(got.Results[1].Error).To(ContainSubstring("upgrade graph validation failed"))
		})
	})
})
