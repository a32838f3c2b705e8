// Package textfmt post-processes generated module text.
package textfmt

import (
	"regexp"
	"strings"
)

// MaxColumns is the line budget for generated modules
const MaxColumns = 159

const breakable = " :.,;"

var (
	defaultClause = regexp.MustCompile(`(-.*\(.*?)(, )?([D|d]efault[ |:|=\n]+.*)(\))`)
	emptyParens   = regexp.MustCompile(`(-.*)\(\)`)
)

// StripDefaults removes "default = x" clauses from parenthesized option
// descriptions in documentation lists, dropping parentheses left empty.
func StripDefaults(s string) string {
	s = defaultClause.ReplaceAllString(s, "${1}${4}")
	return emptyParens.ReplaceAllString(s, "${1}")
}

// Rewrap splits lines longer than limit runes. A line is broken at the last
// breakable character before the limit, or at the limit when there is none,
// and continues on a new line indented two columns past the original.
// Rewrapping wrapped text is a no-op.
func Rewrap(s string, limit int) string {
	trailing := strings.HasSuffix(s, "\n")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")

	out := make([]string, 0, len(lines))
	for len(lines) > 0 {
		line := lines[0]
		lines = lines[1:]

		head, rest, ok := splitLine(line, limit)
		if !ok {
			out = append(out, line)
			continue
		}
		out = append(out, head)
		lines = append([]string{rest}, lines...)
	}

	result := strings.Join(out, "\n")
	if trailing {
		result += "\n"
	}
	return result
}

func splitLine(line string, limit int) (string, string, bool) {
	runes := []rune(line)
	if len(runes) <= limit {
		return "", "", false
	}

	indent := len(runes) - len([]rune(strings.TrimLeft(line, " \t"))) + 2
	if indent >= limit {
		return "", "", false
	}

	pos := limit
	for i := limit - 1; i > indent; i-- {
		if strings.ContainsRune(breakable, runes[i]) {
			pos = i
			break
		}
	}

	return string(runes[:pos]), strings.Repeat(" ", indent) + string(runes[pos:]), true
}

// TrimLines drops the first head and last tail lines of s, keeping line endings
func TrimLines(s string, head, tail int) string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if head+tail >= len(lines) {
		return ""
	}
	return strings.Join(lines[head:len(lines)-tail], "")
}
