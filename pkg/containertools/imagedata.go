package containertools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ImageData is the part of a local image's metadata we act on.
type ImageData struct {
	Size   int64
	Labels map[string]string
}

type ImageDataReader interface {
	GetImageData(ctx context.Context, image string) (*ImageData, error)
}

type ImageInspector struct {
	Logger *logrus.Entry
	Cmd    CommandRunner
}

func NewImageInspector(cmd CommandRunner, logger *logrus.Entry) *ImageInspector {
	return &ImageInspector{
		Logger: logger,
		Cmd:    cmd,
	}
}

type dockerImageData struct {
	Size   int64 `json:"Size"`
	Config struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

type podmanImageData struct {
	Size   int64             `json:"Size"`
	Labels map[string]string `json:"Labels"`
}

// GetImageData inspects a locally built image and parses the tool-specific
// inspect output.
func (r *ImageInspector) GetImageData(ctx context.Context, image string) (*ImageData, error) {
	out, err := r.Cmd.Inspect(ctx, image)
	if err != nil {
		return nil, err
	}

	switch containerTool := r.Cmd.GetToolName(); containerTool {
	case "docker":
		var data []dockerImageData
		if err := json.Unmarshal(out, &data); err != nil {
			return nil, fmt.Errorf("unable to parse %s inspect output: %w", containerTool, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("image %s not found", image)
		}
		return &ImageData{Size: data[0].Size, Labels: data[0].Config.Labels}, nil
	case "podman":
		var data []podmanImageData
		if err := json.Unmarshal(out, &data); err != nil {
			return nil, fmt.Errorf("unable to parse %s inspect output: %w", containerTool, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("image %s not found", image)
		}
		return &ImageData{Size: data[0].Size, Labels: data[0].Labels}, nil
	}

	return nil, fmt.Errorf("unable to parse image data from container tool %q", r.Cmd.GetToolName())
}
