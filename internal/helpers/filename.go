package helpers

import "strings"

const maxFilenameLength = 200

// SanitizeFilename converts an application name into a safe directory name:
// characters that are unsafe on common filesystems and control characters are
// stripped, the result is length-capped and trailing dots/spaces removed.
// An empty result becomes "unnamed".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) > maxFilenameLength {
		out = out[:maxFilenameLength]
	}
	out = strings.Trim(out, ". ")
	if out == "" {
		return "unnamed"
	}
	return out
}
