package offense

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Match pairs a curated offense string with the category it is registered under.
type Match struct {
	Category Category `json:"category"`
	Offense  string   `json:"offense"`
}

// Categorizer resolves offense text against a rule table. It is read-only
// after construction and safe for concurrent use.
type Categorizer struct {
	rules []compiledRule
}

type compiledRule struct {
	rule     Rule
	exact    map[string]struct{}
	tokens   [][]string
	keywords []string
	matcher  *ahocorasick.Matcher
}

// Normalize trims, NFKC-folds, upper-cases and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	// Casers carry state and must not be shared between goroutines.
	s = cases.Upper(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// tokenize splits normalized text into runs of letters and digits.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NewCategorizer compiles rules in the given priority order.
// Rules for Other are ignored; Other is always the fallback.
func NewCategorizer(rules []Rule) *Categorizer {
	c := &Categorizer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Category == Other {
			continue
		}
		cr := compiledRule{
			rule:  r,
			exact: make(map[string]struct{}, len(r.Offenses)),
		}
		for _, o := range r.Offenses {
			n := Normalize(o)
			if n == "" {
				continue
			}
			cr.exact[n] = struct{}{}
			cr.tokens = append(cr.tokens, tokenize(n))
		}
		for _, kw := range r.Keywords {
			if n := Normalize(kw); n != "" {
				cr.keywords = append(cr.keywords, n)
			}
		}
		if len(cr.keywords) > 0 {
			cr.matcher = ahocorasick.NewStringMatcher(cr.keywords)
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

var defaultCategorizer = NewCategorizer(DefaultRules)

// Default returns the categorizer built from DefaultRules.
func Default() *Categorizer { return defaultCategorizer }

// Categorize classifies text with the default table.
func Categorize(text string) Category { return defaultCategorizer.Categorize(text) }

// SearchByKeyword scans the default table.
func SearchByKeyword(keyword string) []Match { return defaultCategorizer.SearchByKeyword(keyword) }

// Categorize resolves text to exactly one category. Curated offense types
// are consulted before keywords; text matching nothing is Other.
func (c *Categorizer) Categorize(text string) Category {
	n := Normalize(text)
	if n == "" {
		return Other
	}

	if cat, ok := c.matchCurated(n); ok {
		return cat
	}
	if cat, ok := c.matchKeyword(n); ok {
		return cat
	}
	return Other
}

// matchCurated checks exact equality across the whole table first, then
// whether a curated string appears as a contiguous token run in the input.
func (c *Categorizer) matchCurated(n string) (Category, bool) {
	for _, r := range c.rules {
		if _, ok := r.exact[n]; ok {
			return r.rule.Category, true
		}
	}

	in := tokenize(n)
	if len(in) == 0 {
		return "", false
	}
	for _, r := range c.rules {
		for _, candidate := range r.tokens {
			if len(candidate) == 0 {
				continue
			}
			if containsSequence(in, candidate) {
				return r.rule.Category, true
			}
		}
	}
	return "", false
}

func (c *Categorizer) matchKeyword(n string) (Category, bool) {
	b := []byte(n)
	for _, r := range c.rules {
		if r.matcher == nil {
			continue
		}
		if len(r.matcher.MatchThreadSafe(b)) > 0 {
			return r.rule.Category, true
		}
	}
	return "", false
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// SearchByKeyword returns every curated offense containing keyword,
// case-insensitively, in table order.
func (c *Categorizer) SearchByKeyword(keyword string) []Match {
	kw := strings.ToLower(keyword)
	var out []Match
	for _, r := range c.rules {
		for _, o := range r.rule.Offenses {
			if strings.Contains(strings.ToLower(o), kw) {
				out = append(out, Match{Category: r.rule.Category, Offense: o})
			}
		}
	}
	return out
}

// OffensesFor returns a copy of the curated offense types for category.
func (c *Categorizer) OffensesFor(category Category) []string {
	for _, r := range c.rules {
		if r.rule.Category == category {
			return append([]string(nil), r.rule.Offenses...)
		}
	}
	return nil
}

// KeywordsFor returns a copy of the keywords registered for category.
func (c *Categorizer) KeywordsFor(category Category) []string {
	for _, r := range c.rules {
		if r.rule.Category == category {
			return append([]string(nil), r.rule.Keywords...)
		}
	}
	return nil
}

// Rules returns the table the categorizer was built from.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.rule)
	}
	return out
}
