package addon

import (
	"fmt"
)

// StructureError reports an addon directory that does not follow the
// expected layout. Path names the offending file or directory.
type StructureError struct {
	Path string
	Err  error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("invalid structure for %s: %v", e.Path, e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

func structureErrorf(path, format string, args ...interface{}) error {
	return &StructureError{Path: path, Err: fmt.Errorf(format, args...)}
}
