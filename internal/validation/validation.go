package validation

import (
	"strings"

	"revflow/internal/errors"
	"revflow/internal/model"
)

// ValidatePath checks a repository path as used in lookups. Paths are
// slash-separated and relative.
func ValidatePath(path string) error {
	if path == "" {
		return errors.ValidationError("path must not be empty", nil)
	}
	if strings.HasPrefix(path, "/") {
		return errors.ValidationError("path must be relative", map[string]string{"path": path})
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return errors.ValidationError("malformed path", map[string]string{"path": path})
		}
	}
	return nil
}

// ParseRevision turns a revision string from a request into a revision
// value, mapping parse failures to a validation error.
func ParseRevision(s string) (model.Revision, error) {
	rev, err := model.ParseRevision(s)
	if err != nil {
		return model.Revision{}, errors.ValidationError("invalid revision", map[string]string{"revision": s})
	}
	return rev, nil
}
