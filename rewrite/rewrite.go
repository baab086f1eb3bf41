package rewrite

import (
	"fmt"
	"path"
	"strings"
)

// Apache returns an Apache mod_rewrite configuration block that
// forwards every request not matching an existing file or directory
// under baseDir to the receiver script, preserving the query string.
func Apache(baseDir, receiver string) string {
	return fmt.Sprintf(`RewriteEngine On
RewriteBase %s
RewriteCond %%{REQUEST_FILENAME} !-f
RewriteCond %%{REQUEST_FILENAME} !-d
RewriteRule ^(.*)$ %s [QSA,L]
`, normalizeBase(baseDir), receiver)
}

// Nginx returns an nginx location block equivalent to Apache: requests
// for existing files and directories are served directly, everything
// else falls through to the receiver with the query string appended.
func Nginx(baseDir, receiver string) string {
	base := normalizeBase(baseDir)
	return fmt.Sprintf(`location %s {
    try_files $uri $uri/ %s$is_args$args;
}
`, base, path.Join(base, receiver))
}

// normalizeBase returns baseDir with exactly one leading and one
// trailing slash. An empty base is the server root.
func normalizeBase(baseDir string) string {
	base := strings.Trim(baseDir, "/")
	if base == "" {
		return "/"
	}
	return "/" + base + "/"
}
