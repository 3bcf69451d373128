// Package stacktrace trims runtime stacks down to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" locations found in a
// debug.Stack() dump, outermost call last.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		_, rest, found := strings.Cut(line, "/internal/")
		if !found || !strings.Contains(rest, ".go:") {
			continue
		}

		// drop the "+0x1a" program counter offset
		loc, _, _ := strings.Cut(rest, " ")
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
