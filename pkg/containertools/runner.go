//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . CommandRunner
package containertools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// CommandRunner defines methods to shell out to common container tools
type CommandRunner interface {
	GetToolName() string
	Build(ctx context.Context, o BuildOptions) error
	Push(ctx context.Context, image string) error
	Inspect(ctx context.Context, image string) ([]byte, error)
}

// ContainerCommandRunner is configured to select a container cli tool and
// execute commands with that tooling.
type ContainerCommandRunner struct {
	logger        *logrus.Entry
	containerTool ContainerTool
	config        *RunnerConfig
}

type RunnerConfig struct {
	SkipTLS bool
	// ConfigDir is a docker config directory holding registry credentials.
	ConfigDir string
}

type RunnerOption func(config *RunnerConfig)

func SkipTLS(skip bool) RunnerOption {
	return func(config *RunnerConfig) {
		config.SkipTLS = skip
	}
}

func WithConfigDir(dir string) RunnerOption {
	return func(config *RunnerConfig) {
		config.ConfigDir = dir
	}
}

func (r *RunnerConfig) apply(options []RunnerOption) {
	for _, option := range options {
		option(r)
	}
}

func (r *ContainerCommandRunner) argsForCmd(cmd string, args ...string) []string {
	cmdArgs := []string{cmd}
	switch r.containerTool {
	case PodmanTool:
		switch cmd {
		case "pull", "push", "login", "search":
			// --tls-verify is a valid flag for these podman subcommands
			if r.config.SkipTLS {
				cmdArgs = append(cmdArgs, "--tls-verify=false")
			}
			if cmd == "push" && r.config.ConfigDir != "" {
				cmdArgs = append(cmdArgs, "--authfile", filepath.Join(r.config.ConfigDir, "config.json"))
			}
		}
	default:
	}
	cmdArgs = append(cmdArgs, args...)
	return cmdArgs
}

func (r *ContainerCommandRunner) prepare(command *exec.Cmd) *exec.Cmd {
	if r.containerTool == DockerTool && r.config.ConfigDir != "" {
		command.Env = append(os.Environ(), "DOCKER_CONFIG="+r.config.ConfigDir)
	}
	return command
}

// NewCommandRunner takes the containerTool and returns a CommandRunner to run
// commands with that cli tool
func NewCommandRunner(containerTool ContainerTool, logger *logrus.Entry, opts ...RunnerOption) *ContainerCommandRunner {
	var config RunnerConfig
	config.apply(opts)
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &ContainerCommandRunner{
		logger:        logger,
		containerTool: containerTool,
		config:        &config,
	}
	return r
}

// GetToolName returns the container tool this command runner is using
func (r *ContainerCommandRunner) GetToolName() string {
	return r.containerTool.String()
}

// Build builds a container image from the given options
func (r *ContainerCommandRunner) Build(ctx context.Context, o BuildOptions) error {
	o.SetSkipTLS(r.config.SkipTLS)
	command, err := r.containerTool.CommandFactory().BuildCommand(ctx, o)
	if err != nil {
		return fmt.Errorf("unable to perform build: %v", err)
	}
	r.prepare(command)

	r.logger.Infof("running %s build", r.containerTool)
	r.logger.Debugf("%s", command.Args)

	out, err := command.CombinedOutput()
	if err != nil {
		r.logger.Errorf(string(out))
		return fmt.Errorf("error building image: %s. %v", string(out), err)
	}

	return nil
}

// Push uploads a local image to its registry
func (r *ContainerCommandRunner) Push(ctx context.Context, image string) error {
	args := r.argsForCmd("push", image)

	command := r.prepare(exec.CommandContext(ctx, r.containerTool.String(), args...))

	r.logger.Infof("running %s push %s", r.containerTool, image)
	r.logger.Debugf("%s", command.Args)

	out, err := command.CombinedOutput()
	if err != nil {
		r.logger.Errorf(string(out))
		return fmt.Errorf("error pushing image: %s. %v", string(out), err)
	}

	return nil
}

// Inspect runs the 'inspect' command to get image metadata of a local container
// image and returns a byte array of the command's output
func (r *ContainerCommandRunner) Inspect(ctx context.Context, image string) ([]byte, error) {
	args := r.argsForCmd("inspect", image)

	command := r.prepare(exec.CommandContext(ctx, r.containerTool.String(), args...))

	r.logger.Infof("running %s inspect", r.containerTool)
	r.logger.Debugf("%s", command.Args)

	out, err := command.Output()
	if err != nil {
		r.logger.Errorf(string(out))
		return nil, fmt.Errorf("error inspecting image %s: %v", image, err)
	}

	return out, nil
}
