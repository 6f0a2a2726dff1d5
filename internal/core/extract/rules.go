package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule names, in evaluation order
const (
	RuleFileComment     = "file-comment"
	RuleLeadIn          = "lead-in"
	RuleQuotedPath      = "quoted-path"
	RuleNumberedSection = "numbered-section"
	RuleHeadingPath     = "heading-path"
)

// DefaultLeadIns are the phrases that introduce a quoted file name in prose
// ("Para o arquivo `x.php`:").
var DefaultLeadIns = []string{
	"Para",
	"Arquivo",
	"No arquivo",
	"Crie o arquivo",
	"Vamos criar",
	"Código para",
}

// Rule locates (path, code) pairs in a response. Each rule runs over the
// whole input independently of the others.
type Rule struct {
	Name      string
	Pattern   *regexp.Regexp
	PathGroup int
	CodeGroup int
}

// word is \w with Unicode letters and digits
const word = `[\p{L}\p{N}_]`

// fence opens a code block with an optional language hint
const fence = "```(?:" + word + "+)?"

// DefaultRules builds the ordered rule set. Extra lead-in phrases are
// appended to DefaultLeadIns and matched literally.
func DefaultRules(extraLeadIns ...string) ([]Rule, error) {
	phrases := make([]string, 0, len(DefaultLeadIns)+len(extraLeadIns))
	for _, p := range append(append([]string{}, DefaultLeadIns...), extraLeadIns...) {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, regexp.QuoteMeta(p))
		}
	}

	specs := []struct {
		name    string
		pattern string
	}{
		{RuleFileComment, fence + `\s*\n(?://|#)\s*File:\s*([\p{L}\p{N}_/.\-]+)\s*\n(.*?)` + "```"},
		{RuleLeadIn, `(?:` + strings.Join(phrases, "|") + `).*?` + "[`\"']([^`\"']+\\." + word + "+)[`\"']" + `.*?:\s*` + fence + `\s*\n(.*?)` + "```"},
		{RuleQuotedPath, "[`\"']([^`\"']+\\." + word + "+)[`\"']" + `\s*:\s*` + fence + `\s*\n(.*?)` + "```"},
		{RuleNumberedSection, `## \d+\. .*?\n\n` + fence + `\n// File: ([\p{L}\p{N}_/.\-]+)\n(.*?)` + "```"},
		{RuleHeadingPath, "###\\s*`?/?([^`\\n]+)`?\\s*\\n" + fence + `\s*\n(.*?)` + "```"},
	}

	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(`(?s)` + s.pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", s.name, err)
		}
		rules = append(rules, Rule{Name: s.name, Pattern: re, PathGroup: 1, CodeGroup: 2})
	}
	return rules, nil
}

// blockPattern matches any fenced block, language hint ignored
var blockPattern = regexp.MustCompile("(?s)" + fence + `\n(.*?)` + "```")
