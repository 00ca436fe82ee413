// Package catalog provides read-only sources for the static course list.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/duynhne/course-service/internal/core/domain"
)

// File reads the catalog from a JSON array on disk. The file is read in full
// on every call so edits are visible without a restart.
type File struct {
	path string
}

// NewFile returns a catalog backed by the JSON file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Courses returns the courses in file order.
func (f *File) Courses(_ context.Context) ([]domain.Course, error) {
	body, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.path, err)
	}

	var entries []domain.Course
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", f.path, err)
	}

	// null entries decode to nil maps
	courses := make([]domain.Course, 0, len(entries))
	for _, c := range entries {
		if c != nil {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

// Static is an in-memory catalog.
type Static []domain.Course

// Courses returns a shallow copy of every course.
func (s Static) Courses(_ context.Context) ([]domain.Course, error) {
	out := make([]domain.Course, 0, len(s))
	for _, c := range s {
		if c == nil {
			continue
		}
		cp := make(domain.Course, len(c))
		for k, v := range c {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}
