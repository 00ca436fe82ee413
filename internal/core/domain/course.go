package domain

import (
	"context"
	"fmt"
)

// Course is one record of the external catalog. Fields other than "id" are
// passed through to clients untouched.
type Course map[string]any

// ID returns the course identifier as a string.
func (c Course) ID() string {
	switch v := c["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// CourseCatalog supplies the read-only course list.
type CourseCatalog interface {
	Courses(ctx context.Context) ([]Course, error)
}
