// Package exectool runs pinned external command line tools.
package exectool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Tool is an external binary. Path is resolved from Name on first use when
// empty.
type Tool struct {
	Name    string
	Version string
	Path    string
	Logger  *logrus.Entry

	once     sync.Once
	resolved string
	err      error
}

// ExitError carries the output of a tool that exited unsuccessfully.
type ExitError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s %s: %v: %s", e.Tool, strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func New(name, version, path string, logger *logrus.Entry) *Tool {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tool{
		Name:    name,
		Version: version,
		Path:    path,
		Logger:  logger,
	}
}

// Resolve returns the absolute path of the binary.
func (t *Tool) Resolve() (string, error) {
	t.once.Do(func() {
		path := t.Path
		if path == "" {
			path = t.Name
		}
		t.resolved, t.err = exec.LookPath(path)
		if t.err != nil {
			t.err = fmt.Errorf("unable to find %s: %w", t, t.err)
		}
	})
	return t.resolved, t.err
}

// Run executes the tool with args and returns its combined output.
func (t *Tool) Run(ctx context.Context, args ...string) ([]byte, error) {
	path, err := t.Resolve()
	if err != nil {
		return nil, err
	}

	command := exec.CommandContext(ctx, path, args...)
	var out bytes.Buffer
	command.Stdout = &out
	command.Stderr = &out

	t.Logger.Debugf("running %s %s", t, strings.Join(args, " "))
	if err := command.Run(); err != nil {
		return out.Bytes(), &ExitError{Tool: t.String(), Args: args, Output: out.String(), Err: err}
	}
	return out.Bytes(), nil
}

// VerifyVersion runs the tool with args and checks that its output mentions
// Version. It is a no-op when Version is empty.
func (t *Tool) VerifyVersion(ctx context.Context, args ...string) error {
	if t.Version == "" {
		return nil
	}
	out, err := t.Run(ctx, args...)
	if err != nil {
		return err
	}
	if !strings.Contains(string(out), t.Version) {
		return fmt.Errorf("expected %s, got: %s", t, strings.TrimSpace(string(out)))
	}
	return nil
}

func (t *Tool) String() string {
	if t.Version == "" {
		return t.Name
	}
	return fmt.Sprintf("%s %s", t.Name, t.Version)
}
