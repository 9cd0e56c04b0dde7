// Package assets embeds the files the binaries need at runtime.
package assets

import "embed"

//go:embed migrations/*.sql templates/email/* common-passwords.txt.gz
var FS embed.FS

const (
	MigrationsDir       = "migrations"
	CommonPasswordsFile = "common-passwords.txt.gz"
)
