package containertools

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
)

type CommandFactory interface {
	BuildCommand(ctx context.Context, o BuildOptions) (*exec.Cmd, error)
}

type BuildOptions struct {
	format     string
	tags       []string
	labels     map[string]string
	dockerfile string
	context    string
	skipTLS    bool
}

func (o *BuildOptions) SetFormatDocker() {
	o.format = "docker"
}

func (o *BuildOptions) SetFormatOCI() {
	o.format = "oci"
}

func (o *BuildOptions) AddTag(tag string) {
	o.tags = append(o.tags, tag)
}

func (o *BuildOptions) AddLabel(key, value string) {
	if o.labels == nil {
		o.labels = map[string]string{}
	}
	o.labels[key] = value
}

func (o *BuildOptions) SetDockerfile(dockerfile string) {
	o.dockerfile = dockerfile
}

func (o *BuildOptions) SetContext(context string) {
	o.context = context
}

func (o *BuildOptions) SetSkipTLS(skip bool) {
	o.skipTLS = skip
}

// Tags returns the tags the image will be built with.
func (o BuildOptions) Tags() []string {
	return o.tags
}

// Labels returns a copy of the labels the image will be built with.
func (o BuildOptions) Labels() map[string]string {
	labels := make(map[string]string, len(o.labels))
	for k, v := range o.labels {
		labels[k] = v
	}
	return labels
}

func (o BuildOptions) Context() string {
	return o.context
}

func (o BuildOptions) Dockerfile() string {
	return o.dockerfile
}

func (o BuildOptions) labelArgs() []string {
	keys := make([]string, 0, len(o.labels))
	for k := range o.labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		args = append(args, "--label", k+"="+o.labels[k])
	}
	return args
}

func DefaultBuildOptions() BuildOptions {
	var o BuildOptions
	o.SetFormatDocker()
	o.SetContext(".")
	return o
}

type DockerCommandFactory struct{}

func (d *DockerCommandFactory) BuildCommand(ctx context.Context, o BuildOptions) (*exec.Cmd, error) {
	args := []string{"build"}

	if o.format != "" && o.format != "docker" {
		return nil, fmt.Errorf(`format %q invalid for "docker build"`, o.format)
	}

	if o.dockerfile != "" {
		args = append(args, "-f", o.dockerfile)
	}

	for _, tag := range o.tags {
		args = append(args, "-t", tag)
	}
	args = append(args, o.labelArgs()...)

	if o.context == "" {
		return nil, fmt.Errorf("context not provided")
	}
	args = append(args, o.context)

	return exec.CommandContext(ctx, "docker", args...), nil
}

type PodmanCommandFactory struct{}

func (p *PodmanCommandFactory) BuildCommand(ctx context.Context, o BuildOptions) (*exec.Cmd, error) {
	args := []string{"build"}

	if o.format != "" {
		args = append(args, "--format", o.format)
	} else {
		args = append(args, "--format", "docker")
	}

	if o.dockerfile != "" {
		args = append(args, "-f", o.dockerfile)
	}

	for _, tag := range o.tags {
		args = append(args, "-t", tag)
	}
	args = append(args, o.labelArgs()...)

	if o.skipTLS {
		args = append(args, "--tls-verify=false")
	}

	if o.context == "" {
		return nil, fmt.Errorf("context not provided")
	}
	args = append(args, o.context)

	return exec.CommandContext(ctx, "podman", args...), nil
}

type StubCommandFactory struct {
	name string
}

func (s *StubCommandFactory) BuildCommand(_ context.Context, _ BuildOptions) (*exec.Cmd, error) {
	return nil, fmt.Errorf(`"build" is not supported by tool %q`, s.name)
}
