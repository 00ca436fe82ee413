package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/course-service/internal/core/domain"
)

func TestFile_Courses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "go-101", "title": "Go basics", "level": "beginner"},
		{"id": 2, "title": "Numeric id"}
	]`), 0o600))

	courses, err := NewFile(path).Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "go-101", courses[0].ID())
	assert.Equal(t, "beginner", courses[0]["level"])
	assert.Equal(t, "2", courses[1].ID())
}

func TestFile_Courses_Missing(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope.json")).Courses(context.Background())
	assert.Error(t, err)
}

func TestFile_Courses_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantIDs []string
	}{
		{name: "object instead of array", body: `{"id": "not-an-array"}`, wantErr: true},
		{name: "truncated", body: `[{"id": "go-101"`, wantErr: true},
		{name: "null entries are skipped", body: `[null, {"id": "go-101"}, null]`, wantIDs: []string{"go-101"}},
		{name: "null document", body: `null`, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "courses.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			courses, err := NewFile(path).Courses(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := []string{}
			for _, c := range courses {
				require.NotNil(t, c)
				ids = append(ids, c.ID())
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStatic_SkipsNilEntries(t *testing.T) {
	courses, err := Static{nil, {"id": "go-101"}}.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "go-101", courses[0].ID())
}

func TestStatic_CoursesReturnsCopies(t *testing.T) {
	src := Static{{"id": "go-101", "title": "Go"}}

	courses, err := src.Courses(context.Background())
	require.NoError(t, err)
	courses[0]["completed"] = true

	_, leaked := src[0]["completed"]
	assert.False(t, leaked)
	assert.Equal(t, "go-101", domain.Course(src[0]).ID())
}
