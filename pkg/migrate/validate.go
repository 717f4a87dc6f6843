package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// LedgerMigrations are the schema steps the license server cannot start without, in the order
// their foreign keys require.
var LedgerMigrations = []string{
	"create_licenses",
	"create_license_activations",
	"create_license_validations",
	"create_admin_users",
}

type migrationFile struct {
	version string
	name    string
	file    string
}

// ValidateDir checks migration filenames and goose headers, and fails unless every ledger
// migration is present and ordered after the tables it references.
func ValidateDir(dir string) error {
	files, err := scanDir(dir)
	if err != nil {
		return err
	}

	position := make(map[string]int, len(files))
	for i, f := range files {
		position[f.name] = i
	}
	prev := -1
	for _, required := range LedgerMigrations {
		idx, ok := position[required]
		if !ok {
			return fmt.Errorf("ledger migration %q missing from %q", required, dir)
		}
		if idx < prev {
			return fmt.Errorf("ledger migration %q is versioned before %q", required, files[prev].name)
		}
		prev = idx
	}
	return nil
}

// scanDir returns the sql migrations in dir sorted by version.
func scanDir(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		txt := string(b)
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(txt, marker) {
				return nil, fmt.Errorf("migration %q missing %q", name, marker)
			}
		}
		files = append(files, migrationFile{version: m[1], name: m[2], file: name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}
