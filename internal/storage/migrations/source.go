package migrations

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

var errSemicolonInString = errors.New("semicolon inside string literal breaks statement splitting")

// script is one embedded migration file split into statements.
type script struct {
	name       string
	statements []string
}

// loadScripts reads every .sql file under dir in lexical order. Files are
// split on semicolons, so they may only use -- comments and must not put a
// semicolon inside a string literal.
func loadScripts(fsys fs.FS, dir string) ([]script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && path.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scripts := make([]script, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := validateNoSemicolonInStrings(string(data)); err != nil {
			return nil, fmt.Errorf("validate migration %s: %w", name, err)
		}
		scripts = append(scripts, script{name: name, statements: splitStatements(string(data))})
	}
	return scripts, nil
}

// splitStatements drops blank and -- comment lines and splits the rest on
// semicolons.
func splitStatements(input string) []string {
	var body strings.Builder
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	var stmts []string
	for _, part := range strings.Split(body.String(), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects a semicolon inside a single-quoted
// literal. A doubled quote ('') is an escaped quote.
func validateNoSemicolonInStrings(sql string) error {
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if quoted && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("%w at offset %d", errSemicolonInString, i)
			}
		}
	}
	return nil
}
