package filter

import (
	"regexp"
	"strings"
)

// compiledPattern is a compiled glob pattern that can match paths.
type compiledPattern struct {
	re       *regexp.Regexp
	pruneRe  *regexp.Regexp // set when the pattern ends with /* — matches the directory itself
	original string
	anchored bool // pattern contains a separator
}

// compilePattern converts a glob pattern into a compiled matcher.
// Patterns containing a separator are matched against whole paths; bare
// patterns are matched against any single path component.
func compilePattern(pattern string, foldCase bool) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}

	p := strings.TrimSuffix(strings.ReplaceAll(pattern, "\\", "/"), "/")
	cp.anchored = strings.Contains(strings.TrimPrefix(p, "/"), "/")

	flags := ""
	if foldCase {
		flags = "(?i)"
	}

	reStr := globToRegex(strings.TrimPrefix(p, "/"))
	if cp.anchored {
		// Whole-path match, either from the root or from any component
		// boundary ("sub/cache" matches "a/sub/cache" too).
		reStr = flags + "(^|/)" + reStr + "$"
	} else {
		// Bare name: match any single component.
		reStr = flags + "(^|/)" + reStr + "($|/)"
	}

	re, err := regexp.Compile(reStr)
	if err != nil {
		return nil, err
	}
	cp.re = re

	// A trailing "/*" also excludes the directory it names, so the walk
	// can prune instead of descending and masking children one by one.
	if trimmed, ok := strings.CutSuffix(strings.TrimPrefix(p, "/"), "/*"); ok {
		pruneStr := flags + "(^|/)" + globToRegex(trimmed) + "$"
		pruneRe, err := regexp.Compile(pruneStr)
		if err != nil {
			return nil, err
		}
		cp.pruneRe = pruneRe
	}

	return cp, nil
}

func (cp *compiledPattern) match(path string) bool {
	return cp.re.MatchString(path)
}

func (cp *compiledPattern) prune(path string) bool {
	return cp.pruneRe != nil && cp.pruneRe.MatchString(path)
}

// globToRegex converts a glob pattern to a regex string.
//
//nolint:gocyclo // character-by-character glob parser
func globToRegex(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// ** matches anything including /
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(.*/)?")
					i += 3
				} else {
					b.WriteString(".*")
					i += 2
				}
			} else {
				// * matches anything except /
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			// Character class — pass through to regex.
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				cls := pattern[i+1 : j]
				// Convert ! to ^ for negation.
				if strings.HasPrefix(cls, "!") {
					cls = "^" + cls[1:]
				}
				b.WriteString("[" + cls + "]")
				i = j + 1
			} else {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '.', '(', ')', '+', '{', '}', '^', '$', '|', '\\':
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
