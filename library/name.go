package library

import (
	"regexp"
	"strings"
)

var (
	bracketRE    = regexp.MustCompile(`\[[^\]]*\]`)
	releaseTagRE = regexp.MustCompile(`-\S+$`)
	spacesRE     = regexp.MustCompile(`\s+`)
)

// NormalizeSearchName derives the initial metadata search query from a
// directory name: bracketed segments and a trailing hyphenated release
// tag are stripped, whitespace is collapsed, and the result is trimmed.
// The tag strip is anchored to the end so hyphens inside the title
// ("Half-Life 2") survive. "Foo Bar [Repack]-GROUP" becomes "Foo Bar".
func NormalizeSearchName(dirName string) string {
	name := bracketRE.ReplaceAllString(dirName, "")
	name = strings.TrimSpace(name)
	name = releaseTagRE.ReplaceAllString(name, "")
	name = spacesRE.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
