// Package display renders build information through a format string such as
// "v{bv_semantic} (#{bv_number})".
package display

import (
	"strconv"
	"strings"

	"github.com/gcstr/buildversions/internal/record"
)

// DefaultFormat shows the build number.
const DefaultFormat = "#{bv_number}"

// Info is the data available to placeholders.
type Info struct {
	Record   record.BuildRecord
	Semantic string
}

// Placeholders lists every recognized placeholder name.
var Placeholders = []string{
	"bv_type", "bv_number", "bv_date", "bv_day", "bv_month", "bv_year",
	"bv_semantic", "bv_semantic_major", "bv_semantic_minor", "bv_semantic_patch",
	"newline",
}

// Render replaces {placeholder} tokens in format, case-insensitively. Text
// that is not a recognized placeholder is kept as written, braces included.
// Semantic components that the version string does not have render empty.
func Render(format string, info Info) string {
	var b strings.Builder
	rest := format
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			break
		}
		end += open + 1
		name := rest[open+1 : end]
		val, ok := lookup(strings.ToLower(name), info)
		if !ok {
			b.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		b.WriteString(rest[:open])
		b.WriteString(val)
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

func lookup(name string, info Info) (string, bool) {
	r := info.Record
	switch name {
	case "bv_type":
		return r.BuildType, true
	case "bv_number":
		return strconv.Itoa(r.BuildNumber.Value()), true
	case "bv_date":
		return r.BuildDate.String(), true
	case "bv_day":
		return strconv.Itoa(r.BuildDate.Day), true
	case "bv_month":
		return strconv.Itoa(r.BuildDate.Month), true
	case "bv_year":
		return strconv.Itoa(r.BuildDate.Year), true
	case "bv_semantic":
		return info.Semantic, true
	case "bv_semantic_major":
		return component(info.Semantic, 0), true
	case "bv_semantic_minor":
		return component(info.Semantic, 1), true
	case "bv_semantic_patch":
		return component(info.Semantic, 2), true
	case "newline":
		return "\n", true
	}
	return "", false
}

func component(v string, i int) string {
	if v == "" {
		return ""
	}
	parts := strings.Split(v, ".")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}
