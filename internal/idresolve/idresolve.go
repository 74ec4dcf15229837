// Package idresolve unwraps configured identifiers that may be written as a
// platform mention instead of a raw numeric id.
package idresolve

import "strings"

type mentionShape struct {
	prefix string
	suffix string
}

// Order matters: "<@&" and "<@!" must be tried before the bare user shape.
var shapes = []mentionShape{
	{prefix: "<@&", suffix: ">"},
	{prefix: "<#", suffix: ">"},
	{prefix: "<@!", suffix: ">"},
	{prefix: "<@", suffix: ">"},
}

// Extract returns the numeric id wrapped by a role, channel or user mention.
// Values matching none of the shapes are returned unchanged.
func Extract(value string) string {
	for _, shape := range shapes {
		if len(value) >= len(shape.prefix)+len(shape.suffix) &&
			strings.HasPrefix(value, shape.prefix) && strings.HasSuffix(value, shape.suffix) {
			return value[len(shape.prefix) : len(value)-len(shape.suffix)]
		}
	}
	return value
}

// IsSnowflake reports whether id is a non-empty string of ASCII digits.
func IsSnowflake(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
