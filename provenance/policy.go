package provenance

import "strings"

// Reserved AssemblyMetadata keys and the hosting-path marker the
// source-commit-URL fallback recognizes. The marker is deliberately the
// single literal "tree" path segment; other hosting conventions produce no
// value from that rule.
const (
	keyRepositoryURL   = "RepositoryUrl"
	keyCommitHash      = "CommitHash"
	keySourceCommitURL = "SourceCommitUrl"

	treeSegment = "/tree/"
)

// rule is one step of a fallback chain. Rules are data: each chain is an
// ordered list evaluated with short-circuit semantics, and the first rule
// producing a non-empty value wins.
type rule struct {
	name  string
	apply func(candidates) (string, bool)
}

var repositoryRules = []rule{
	{"repository-url-pair", func(c candidates) (string, bool) {
		return c.pair(keyRepositoryURL)
	}},
	{"source-commit-url-prefix", func(c candidates) (string, bool) {
		url, ok := c.pair(keySourceCommitURL)
		if !ok {
			return "", false
		}
		i := strings.Index(url, treeSegment)
		if i <= 0 {
			return "", false
		}
		return url[:i], true
	}},
}

var commitRules = []rule{
	{"commit-hash-pair", func(c candidates) (string, bool) {
		return c.pair(keyCommitHash)
	}},
	{"informational-version-suffix", func(c candidates) (string, bool) {
		if !c.hasInfoVersion {
			return "", false
		}
		_, suffix, found := strings.Cut(c.infoVersion, "+")
		if !found || !isCommitSHA(suffix) {
			return "", false
		}
		return suffix, true
	}},
}

// pair returns the value of the first metadata pair with the given key.
// Null and empty values do not match: a rule only wins with a value.
func (c candidates) pair(key string) (string, bool) {
	for _, p := range c.pairs {
		if p.Key == key {
			if p.ValueIsNull || p.Value == "" {
				return "", false
			}
			return p.Value, true
		}
	}
	return "", false
}

// evaluate runs a rule chain against the candidates, short-circuiting on
// the first rule that produces a value.
func evaluate(rules []rule, c candidates) (string, bool) {
	for _, r := range rules {
		if v, ok := r.apply(c); ok {
			return v, true
		}
	}
	return "", false
}

// isCommitSHA reports whether s is a full 40-character hexadecimal commit
// hash. Anything shorter, longer or non-hex is rejected; a partial hash is
// never returned.
func isCommitSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
