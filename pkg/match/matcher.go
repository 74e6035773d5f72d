package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a region name marks it as a placeholder.
// It is constructed once from the configured pattern and is safe to share
// across the whole batch.
type Matcher interface {
	Matches(name string) bool
	String() string
}

// DefaultPattern is used when the configuration leaves name_filter empty.
const DefaultPattern = "design"

// Compile builds a Matcher from the configured pattern. A pattern wrapped in
// slashes (`/.../`) is compiled as a regular expression and used directly;
// anything else is matched as a case-insensitive substring. An empty pattern
// falls back to DefaultPattern.
func Compile(pattern string) (Matcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = DefaultPattern
	}
	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return nil, fmt.Errorf("failed to compile name filter %q: %w", pattern, err)
		}
		return patternMatcher{re: re}, nil
	}
	return substringMatcher{needle: strings.ToLower(pattern)}, nil
}

type substringMatcher struct {
	needle string
}

func (m substringMatcher) Matches(name string) bool {
	return strings.Contains(strings.ToLower(name), m.needle)
}

func (m substringMatcher) String() string { return m.needle }

type patternMatcher struct {
	re *regexp.Regexp
}

func (m patternMatcher) Matches(name string) bool {
	return m.re.MatchString(name)
}

func (m patternMatcher) String() string { return "/" + m.re.String() + "/" }
