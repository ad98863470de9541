// Package db embeds the SQL schema migrations.
package db

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migration is one forward schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the *.up.sql files in lexical order.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Migration, 0, len(names))
	for _, name := range names {
		payload, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: name, SQL: string(payload)})
	}
	return out, nil
}
