package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/mt-sre/managed-tenants-cli/pkg/containertools"
	"github.com/mt-sre/managed-tenants-cli/pkg/image/remote"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/exectool"
	libimage "github.com/mt-sre/managed-tenants-cli/pkg/lib/image"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/indexer"
	"github.com/mt-sre/managed-tenants-cli/pkg/pipeline"
	"github.com/mt-sre/managed-tenants-cli/pkg/quay"
)

const (
	dockerConfigEnv = "DOCKER_CONF"
	quayHost        = "quay.io"
)

type options struct {
	addonsDir         string
	quayOrg           string
	registry          string
	dryRun            bool
	forcePush         bool
	singleBundle      bool
	containerTool     string
	opmPath           string
	opmVersion        string
	binaryImage       string
	hash              string
	workers           int
	localRegistry     bool
	contentValidation bool
	report            string
	imageSetEnv       string
	dockerConfig      string
	skipTLS           bool
}

func newOptions() *options {
	return &options{}
}

func (o *options) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.addonsDir, "addons-dir", "addons", "directory holding one subdirectory per addon")
	fs.StringVar(&o.quayOrg, "quay-org", "", "quay organization image repositories are created in, defaults to the --registry namespace or "+quay.DefaultOrg)
	fs.StringVar(&o.registry, "registry", "", "registry images are pushed to, defaults to quay.io/<quay-org>")
	fs.BoolVar(&o.dryRun, "dry-run", false, "build images without pushing them")
	fs.BoolVar(&o.forcePush, "force-push", false, "push images even if their tag already exists")
	fs.BoolVar(&o.singleBundle, "single-bundle-per-operator", false, "require exactly one bundle per operator, upgrades expressed with olm.skipRange")
	fs.StringVar(&o.containerTool, "container-tool", "docker", "tool to build and push images with, one of: [docker, podman]")
	fs.StringVar(&o.opmPath, "opm-path", "", "path to the opm binary, looked up in PATH when empty")
	fs.StringVar(&o.opmVersion, "opm-version", indexer.DefaultOpmVersion, "expected opm version")
	fs.StringVar(&o.binaryImage, "binary-image", indexer.DefaultBinaryImage, "base image of index images")
	fs.StringVar(&o.hash, "hash", "", "build hash used in image tags, defaults to the short hash of HEAD")
	fs.IntVar(&o.workers, "workers", 1, "number of addons built concurrently")
	fs.BoolVar(&o.localRegistry, "local-registry", false, "push to an in-process registry instead of --registry")
	fs.BoolVar(&o.contentValidation, "content-validation", false, "lint bundle manifests with the operator-framework validators")
	fs.StringVar(&o.report, "report", "", "write a YAML report of the build to this file")
	fs.StringVar(&o.imageSetEnv, "imageset-env", "", "write an addon image set for this environment, one of: [stage, integration]")
	fs.StringVar(&o.dockerConfig, "docker-config", os.Getenv(dockerConfigEnv), "docker config directory holding registry credentials")
	fs.BoolVar(&o.skipTLS, "skip-tls", false, "skip TLS certificate verification for container registries")
}

func (o *options) validate() error {
	switch o.imageSetEnv {
	case "", "stage", "integration":
	default:
		return fmt.Errorf("invalid image set environment %q, must be stage or integration", o.imageSetEnv)
	}
	if o.workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	return nil
}

func (o *options) run(ctx context.Context, addonDirs []string) error {
	logger := logrus.NewEntry(logrus.StandardLogger())

	if err := o.validate(); err != nil {
		return err
	}

	tool, err := containertools.NewContainerTool(o.containerTool)
	if err != nil {
		return err
	}

	registry, org, err := resolveRegistry(o.registry, o.quayOrg)
	if err != nil {
		return err
	}
	plainHTTP := false

	if o.localRegistry {
		reg := libimage.RunDockerRegistry(ctx, "")
		defer reg.Close()
		registry = reg.Host() + "/" + org
		plainHTTP = reg.PlainHTTP()
		logger.WithField("registry", registry).Info("serving local registry")
	}

	runner := containertools.NewCommandRunner(tool, logger,
		containertools.SkipTLS(o.skipTLS || plainHTTP),
		containertools.WithConfigDir(o.dockerConfig),
	)

	checker, err := remote.NewTagChecker(
		remote.WithPlainHTTP(plainHTTP),
		remote.WithDockerConfigDir(o.dockerConfig),
		remote.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithTagChecker(checker),
		pipeline.WithDigestResolver(checker),
		pipeline.WithLogger(logger),
	}
	if !o.dryRun && isQuay(registry) {
		client, err := quay.NewClientFromEnv(org, quay.WithLogger(logger))
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithRepoEnsurer(client))
	}

	opm := exectool.New("opm", o.opmVersion, o.opmPath, logger)
	if err := opm.VerifyVersion(ctx, "version"); err != nil {
		return err
	}

	p, err := pipeline.New(runner, opm, pipeline.Options{
		Registry:          registry,
		Hash:              o.hash,
		DryRun:            o.dryRun,
		ForcePush:         o.forcePush,
		SingleBundle:      o.singleBundle,
		ContentValidation: o.contentValidation,
		ContainerTool:     tool.String(),
		BinaryImage:       o.binaryImage,
		Workers:           o.workers,
		ImageSetEnv:       o.imageSetEnv,
	}, opts...)
	if err != nil {
		return err
	}

	results, runErr := p.RunAll(ctx, addonDirs)
	for _, res := range results {
		entry := logger.WithField("addon", res.Addon)
		switch {
		case res.Err != nil:
			entry.WithError(res.Err).Error("addon failed")
		case res.Skipped:
			entry.WithField("source", res.Source.String()).Info("addon skipped")
		default:
			entry.WithField("image", res.IndexImage.String()).Info("addon succeeded")
		}
	}

	if o.report != "" {
		if err := pipeline.NewReport(o.hash, o.dryRun, results).WriteFile(o.report); err != nil {
			return fmt.Errorf("unable to write report: %w", err)
		}
	}
	return runErr
}

// resolveRegistry defaults the registry to quay.io/<org> and the org to the
// namespace of a quay.io registry. A quay.io registry must name exactly the
// org repositories are created in.
func resolveRegistry(registry, org string) (string, string, error) {
	if registry == "" {
		if org == "" {
			org = quay.DefaultOrg
		}
		return quayHost + "/" + org, org, nil
	}

	registry = strings.TrimSuffix(registry, "/")
	if !isQuay(registry) {
		if org == "" {
			org = quay.DefaultOrg
		}
		return registry, org, nil
	}

	namespace := strings.TrimPrefix(registry, quayHost)
	namespace = strings.TrimPrefix(namespace, "/")
	if namespace == "" || strings.Contains(namespace, "/") {
		return "", "", fmt.Errorf("invalid registry %q, expected %s/<org>", registry, quayHost)
	}
	if org != "" && org != namespace {
		return "", "", fmt.Errorf("--quay-org %q does not match the namespace of --registry %q", org, registry)
	}
	return registry, namespace, nil
}

func isQuay(registry string) bool {
	return registry == quayHost || strings.HasPrefix(registry, quayHost+"/")
}
