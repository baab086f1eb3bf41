// Package rewrite generates web-server rewrite configuration blocks
// that forward all non-file, non-directory requests to a single
// receiver script, the front controller feeding a dispatch registry.
//
// The generators are pure string formatting: they read no server state
// and can be called at any time, independently of any registry.
//
//	block := rewrite.Apache("/app", "index.php")
//
// produces a mod_rewrite block with file and directory exclusion
// conditions and query-string append. Nginx produces the equivalent
// try_files location block.
package rewrite
