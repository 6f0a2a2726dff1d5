package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("", "", "")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"relative", "app/Models/User.php", "restaurante-sistema/app/Models/User.php"},
		{"leading slash", "/app/Models/User.php", "restaurante-sistema/app/Models/User.php"},
		{"legacy prefix", "restaurante-saas/foo/bar.php", "restaurante-sistema/foo/bar.php"},
		{"legacy prefix with slash", "/restaurante-saas/foo/bar.php", "restaurante-sistema/foo/bar.php"},
		{"already rooted", "restaurante-sistema/foo/bar.php", "restaurante-sistema/foo/bar.php"},
		{"repeated root", "restaurante-sistema/restaurante-sistema/restaurante-sistema/x.php", "restaurante-sistema/x.php"},
		{"nested repeat", "a/restaurante-sistema/restaurante-sistema/b.php", "restaurante-sistema/a/restaurante-sistema/b.php"},
		{"spaces and symbols", "app/My File (1).php", "restaurante-sistema/app/MyFile1.php"},
		{"double slash", "//etc/passwd", "restaurante-sistema/etc/passwd"},
		{"unicode", "app/Cardápio.php", "restaurante-sistema/app/Cardápio.php"},
		{"backslash kept", `app\Http\Kernel.php`, `restaurante-sistema/app\Http\Kernel.php`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	normalizers := []*Normalizer{
		NewNormalizer("", "", ""),
		NewNormalizer("/srv/out dir", "", ""),
		NewNormalizer("generated", "restaurante-sistema", "old-name/"),
	}
	inputs := []string{
		"",
		"/",
		"//",
		"a.php",
		"/restaurante-saas/restaurante-saas/x.php",
		"restaurante-saas//x.php",
		"restaurante-sistema/restaurante-sistema/a/b.php",
		"old-name/old-name/y.go",
		"srv/out dir/z.txt",
		"weird path/with spaces & quotes\".php",
		"/generated/restaurante-sistema/k.php",
	}

	for _, n := range normalizers {
		for _, in := range inputs {
			once := n.Normalize(in)
			assert.Equal(t, once, n.Normalize(once), "base=%q input=%q", n.BaseDir(), in)
		}
	}
}

func TestNewNormalizer_SanitizesBase(t *testing.T) {
	assert.Equal(t, "srv/outdir", NewNormalizer("/srv/out dir/", "", "").BaseDir())
	assert.Equal(t, DefaultBaseDir, NewNormalizer("///", "", "").BaseDir())
}
