package mqtt

import "strings"

// Match reports whether topic matches a subscription pattern.
//
// Levels are compared pairwise: # matches everything from its position on,
// + matches exactly one level, and any other level must be equal. Without
// a #, pattern and topic must have the same number of levels, so "a/#"
// matches "a/b/c/d" but "a/b" does not match "a/b/c".
func Match(pattern, topic string) bool {
	p := strings.Split(pattern, "/")
	t := strings.Split(topic, "/")

	for i := 0; i < len(p) && i < len(t); i++ {
		switch p[i] {
		case "#":
			return true
		case "+":
			continue
		default:
			if p[i] != t[i] {
				return false
			}
		}
	}

	return len(p) == len(t)
}
