package containertools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTool installs a script named after tool on PATH. The script records its
// arguments and DOCKER_CONFIG in the returned file and exits with code.
func fakeTool(t *testing.T, tool, code string) string {
	t.Helper()

	bin := t.TempDir()
	record := filepath.Join(t.TempDir(), "calls")
	script := "#!/bin/sh\n" +
		`echo "$DOCKER_CONFIG $@" >> ` + record + "\n" +
		`echo "output of $1"` + "\n" +
		"exit " + code + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, tool), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	return record
}

func readCalls(t *testing.T, record string) []string {
	t.Helper()

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunnerPush(t *testing.T) {
	tests := []struct {
		description string
		tool        ContainerTool
		opts        []RunnerOption
		expected    string
	}{
		{
			description: "Docker",
			tool:        DockerTool,
			expected:    " push quay.io/osd-addons/reference-addon-index:abc1234",
		},
		{
			description: "DockerConfigDir",
			tool:        DockerTool,
			opts:        []RunnerOption{WithConfigDir("/etc/registry")},
			expected:    "/etc/registry push quay.io/osd-addons/reference-addon-index:abc1234",
		},
		{
			description: "PodmanSkipTLS",
			tool:        PodmanTool,
			opts:        []RunnerOption{SkipTLS(true), WithConfigDir("/etc/registry")},
			expected:    " push --tls-verify=false --authfile /etc/registry/config.json quay.io/osd-addons/reference-addon-index:abc1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			t.Setenv("DOCKER_CONFIG", "")
			record := fakeTool(t, tt.tool.String(), "0")

			runner := NewCommandRunner(tt.tool, nil, tt.opts...)
			require.Equal(t, tt.tool.String(), runner.GetToolName())
			require.NoError(t, runner.Push(context.Background(), "quay.io/osd-addons/reference-addon-index:abc1234"))
			require.Equal(t, []string{tt.expected}, readCalls(t, record))
		})
	}
}

func TestRunnerInspect(t *testing.T) {
	t.Setenv("DOCKER_CONFIG", "")
	record := fakeTool(t, "docker", "0")

	out, err := NewCommandRunner(DockerTool, nil).Inspect(context.Background(), "reference-addon-bundle:0.1.0-abc1234")
	require.NoError(t, err)
	require.Equal(t, "output of inspect\n", string(out))
	require.Equal(t, []string{" inspect reference-addon-bundle:0.1.0-abc1234"}, readCalls(t, record))
}

func TestRunnerFailures(t *testing.T) {
	t.Setenv("DOCKER_CONFIG", "")
	fakeTool(t, "docker", "1")
	runner := NewCommandRunner(DockerTool, nil)

	err := runner.Push(context.Background(), "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234")
	require.ErrorContains(t, err, "error pushing image: output of push")

	_, err = runner.Inspect(context.Background(), "reference-addon-bundle:0.1.0-abc1234")
	require.ErrorContains(t, err, "error inspecting image reference-addon-bundle:0.1.0-abc1234")
}
