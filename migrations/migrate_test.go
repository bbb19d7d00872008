package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEveryMigrationHasUpAndDown(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no migrations embedded")
	}
	for _, name := range names {
		raw, err := fs.ReadFile(files, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		body := string(raw)
		if !strings.HasPrefix(body, "-- +goose Up") {
			t.Errorf("%s: must start with the goose Up annotation", name)
		}
		if !strings.Contains(body, "-- +goose Down") {
			t.Errorf("%s: missing goose Down section", name)
		}
	}
}
