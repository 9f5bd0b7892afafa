package domain

import "fmt"

// ConfigurationError covers malformed directives, identifiers outside the
// closed enumerations, and unsupported file extensions. Always fatal and
// always raised before tier processing begins.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Detail
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Detail: fmt.Sprintf(format, args...)}
}

// LookupMiss covers a missing dataset directory, zero date matches, or a
// missing declared file. Fatal only under the strict missing-files
// policy; otherwise logged and skipped.
type LookupMiss struct {
	Tier   Tier
	Name   string
	Detail string
}

func (e *LookupMiss) Error() string {
	return fmt.Sprintf("lookup miss in tier %s: %s: %s", e.Tier, e.Name, e.Detail)
}

// IndexBuildError covers an unreadable raster footprint or frame and
// mismatched HDF coordinate-array lengths. Always fatal for the whole
// batch: one bad file never silently shrinks the index.
type IndexBuildError struct {
	Path   string
	Detail string
	Err    error
}

func (e *IndexBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index build: %s: %s: %v", e.Path, e.Detail, e.Err)
	}
	return fmt.Sprintf("index build: %s: %s", e.Path, e.Detail)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// CopyError is an I/O failure transferring one primary file. Sidecar
// copy failures never become CopyErrors; they are warnings.
type CopyError struct {
	Source string
	Dest   string
	Err    error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// PostProcessError is a columnar date-filter failure after a successful
// raw copy. Warning only; the unfiltered copy remains the artifact.
type PostProcessError struct {
	Path string
	Err  error
}

func (e *PostProcessError) Error() string {
	return fmt.Sprintf("post-process %s: %v", e.Path, e.Err)
}

func (e *PostProcessError) Unwrap() error { return e.Err }
