// Package assets holds the files shipped inside the binaries.
package assets

import "embed"

//go:embed templates/email/* common-passwords.txt.gz
var FS embed.FS

const (
	EmailTemplatesDir   = "templates/email"
	CommonPasswordsFile = "common-passwords.txt.gz"
)
