// internal/model/file.go
package model

import "fmt"

// RevisionedFile identifies a file or directory at one revision of one
// repository. It is an immutable value type; two instances are equal iff
// path, revision and repository all match.
type RevisionedFile struct {
	Path     string   `json:"path"`
	Revision Revision `json:"revision"`
	Repo     string   `json:"repo"`
}

// NewRevisionedFile creates a file identity for the given path and revision.
func NewRevisionedFile(path string, revision Revision, repo string) RevisionedFile {
	return RevisionedFile{Path: path, Revision: revision, Repo: repo}
}

func (f RevisionedFile) String() string {
	return fmt.Sprintf("%s@%s", f.Path, f.Revision)
}
