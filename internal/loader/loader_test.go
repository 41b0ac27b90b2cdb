package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadObject(t *testing.T) {
	rec, err := Load([]byte(`{"student_name": "Asha", "totalMarkScored": 42}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.StudentName != "Asha" {
		t.Errorf("expected student name Asha, got %q", rec.StudentName)
	}
	if rec.TotalMarkScored == nil || *rec.TotalMarkScored != 42 {
		t.Errorf("expected score 42, got %v", rec.TotalMarkScored)
	}
}

func TestLoadArrayWrapper(t *testing.T) {
	rec, err := Load([]byte(`[{"student_name": "First"}, {"student_name": "Second"}]`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The first element is the record by convention.
	if rec.StudentName != "First" {
		t.Errorf("expected first element, got %q", rec.StudentName)
	}
}

func TestLoadInvalidShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty array", `[]`},
		{"scalar number", `42`},
		{"scalar string", `"hello"`},
		{"null", `null`},
		{"bool", `true`},
		{"array of scalars", `[1, 2, 3]`},
		{"empty input", ``},
		{"whitespace only", "  \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			if !errors.Is(err, ErrEmptyOrInvalidShape) {
				t.Errorf("expected ErrEmptyOrInvalidShape, got %v", err)
			}
		})
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated object", `{"student_name": "Asha"`},
		{"truncated array", `[{"a": 1}`},
		{"bare word", `garbage`},
		{"trailing comma", `{"a": 1,}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if errors.Is(err, ErrEmptyOrInvalidShape) {
				t.Errorf("malformed input should not be reported as invalid shape: %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submission.json")
	if err := os.WriteFile(path, []byte(`[{"student_name": "Ravi"}]`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rec, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if rec.StudentName != "Ravi" {
		t.Errorf("expected Ravi, got %q", rec.StudentName)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
