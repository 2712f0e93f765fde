package containertools

import (
	"fmt"
)

type ContainerTool int

const (
	NoneTool ContainerTool = iota
	PodmanTool
	DockerTool
)

func (t ContainerTool) String() (s string) {
	switch t {
	case NoneTool:
		s = "none"
	case PodmanTool:
		s = "podman"
	case DockerTool:
		s = "docker"
	}
	return
}

// NewContainerTool parses a tool name. Only docker and podman can build images.
func NewContainerTool(s string) (ContainerTool, error) {
	switch s {
	case "docker":
		return DockerTool, nil
	case "podman":
		return PodmanTool, nil
	default:
		return NoneTool, fmt.Errorf("unsupported container tool %q, expected docker or podman", s)
	}
}

// CommandFactory returns the build command factory of the tool.
func (t ContainerTool) CommandFactory() CommandFactory {
	switch t {
	case PodmanTool:
		return &PodmanCommandFactory{}
	case DockerTool:
		return &DockerCommandFactory{}
	}
	return &StubCommandFactory{name: t.String()}
}
