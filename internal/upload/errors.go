package upload

import "fmt"

// LocalPathError means the subject directory is missing on disk.
type LocalPathError struct {
	Path string
}

func (e *LocalPathError) Error() string {
	return fmt.Sprintf("subject directory does not exist: %s", e.Path)
}

// NotFoundError means no session or assessor matched the given labels.
type NotFoundError struct {
	What    string
	Project string
	Session string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for project %s session %s", e.What, e.Project, e.Session)
}

// AmbiguousMatchError means more than one assessor matched and the suffix
// (if any) did not narrow the candidates down to one.
type AmbiguousMatchError struct {
	Labels []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("multiple assessors match, provide a suffix to disambiguate: %v", e.Labels)
}
