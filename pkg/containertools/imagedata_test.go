package containertools_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mt-sre/managed-tenants-cli/pkg/containertools"
	"github.com/mt-sre/managed-tenants-cli/pkg/containertools/containertoolsfakes"
)

const (
	exampleInspectResultDocker = `[
    {
        "Id": "sha256:a3f5fa4eba6f8c1a1cd8a9e1e9bb4d1c6a0ef4a8d8e0f0a4b9d3c4d2f5e6a7b8",
        "RepoTags": ["quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234"],
        "Size": 4233,
        "Config": {
            "Labels": {
                "operators.operatorframework.io.bundle.package.v1": "reference-addon"
            }
        }
    }
]`
	exampleInspectResultPodman = `[
    {
        "Id": "a3f5fa4eba6f8c1a1cd8a9e1e9bb4d1c6a0ef4a8d8e0f0a4b9d3c4d2f5e6a7b8",
        "Size": 0,
        "Labels": {
            "operators.operatorframework.io.bundle.package.v1": "reference-addon"
        }
    }
]`
)

func TestGetImageData(t *testing.T) {
	tests := []struct {
		tool         string
		inspect      string
		expectedSize int64
	}{
		{tool: "docker", inspect: exampleInspectResultDocker, expectedSize: 4233},
		{tool: "podman", inspect: exampleInspectResultPodman, expectedSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			mockCmd := containertoolsfakes.FakeCommandRunner{}
			mockCmd.InspectReturns([]byte(tt.inspect), nil)
			mockCmd.GetToolNameReturns(tt.tool)

			inspector := containertools.NewImageInspector(&mockCmd, logrus.NewEntry(logrus.New()))
			data, err := inspector.GetImageData(context.Background(), "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234")
			require.NoError(t, err)
			require.Equal(t, tt.expectedSize, data.Size)
			require.Equal(t, "reference-addon", data.Labels["operators.operatorframework.io.bundle.package.v1"])

			_, image := mockCmd.InspectArgsForCall(0)
			require.Equal(t, "quay.io/osd-addons/reference-addon-bundle:0.1.0-abc1234", image)
		})
	}
}

func TestGetImageDataErrors(t *testing.T) {
	mockCmd := containertoolsfakes.FakeCommandRunner{}
	inspector := containertools.NewImageInspector(&mockCmd, logrus.NewEntry(logrus.New()))

	mockCmd.InspectReturns(nil, errors.New("no such image"))
	_, err := inspector.GetImageData(context.Background(), "foo")
	require.Error(t, err)

	mockCmd.InspectReturns([]byte("[]"), nil)
	mockCmd.GetToolNameReturns("docker")
	_, err = inspector.GetImageData(context.Background(), "foo")
	require.Error(t, err)

	mockCmd.InspectReturns([]byte("[{}]"), nil)
	mockCmd.GetToolNameReturns("none")
	_, err = inspector.GetImageData(context.Background(), "foo")
	require.Error(t, err)
}
