package extract

import (
	"regexp"
	"strings"
)

const (
	// DefaultBaseDir is the directory every extracted path lives under
	DefaultBaseDir = "restaurante-sistema"
	// DefaultCanonicalSegment marks a path that is already rooted in the project
	DefaultCanonicalSegment = "restaurante-sistema"
	// DefaultLegacyPrefix is an old project name responses still emit
	DefaultLegacyPrefix = "restaurante-saas/"
)

// maxPasses bounds the fixed-point loop; real inputs settle in two
var maxPasses = 8

var disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\-./\\]`)

// Normalizer maps raw paths found in responses to project-relative paths
type Normalizer struct {
	baseDir   string
	canonical string
	legacy    string
	repeated  *regexp.Regexp
}

// NewNormalizer creates a normalizer. Empty arguments take the defaults.
// The base directory is sanitized and made relative.
func NewNormalizer(baseDir, canonical, legacy string) *Normalizer {
	if canonical == "" {
		canonical = DefaultCanonicalSegment
	}
	if legacy == "" {
		legacy = DefaultLegacyPrefix
	}
	baseDir = strings.Trim(disallowed.ReplaceAllString(baseDir, ""), "/")
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}

	segment := strings.TrimSuffix(canonical, "/") + "/"
	return &Normalizer{
		baseDir:   baseDir,
		canonical: strings.TrimSuffix(canonical, "/"),
		legacy:    legacy,
		repeated:  regexp.MustCompile(`(` + regexp.QuoteMeta(segment) + `)+`),
	}
}

// BaseDir returns the sanitized base directory
func (n *Normalizer) BaseDir() string {
	return n.baseDir
}

// Normalize runs the pipeline until the path stops changing, so that
// Normalize(Normalize(p)) == Normalize(p).
func (n *Normalizer) Normalize(raw string) string {
	p := raw
	for i := 0; i < maxPasses; i++ {
		next := n.pass(p)
		if next == p {
			break
		}
		p = next
	}
	return p
}

func (n *Normalizer) pass(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, n.legacy)
	p = n.repeated.ReplaceAllString(p, n.canonical+"/")
	if !strings.HasPrefix(p, n.canonical) && !strings.HasPrefix(p, n.baseDir) {
		p = n.baseDir + "/" + strings.TrimLeft(p, "/")
	}
	return disallowed.ReplaceAllString(p, "")
}
