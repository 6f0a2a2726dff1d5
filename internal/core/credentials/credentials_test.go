package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestMask(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-ant-REDACTED", "sk-ant-api...XYZ12"},
		{"0123456789abcdef", "0123456789...bcdef"},
		{"0123456789abcde", "(too short)"},
		{"", "(too short)"},
	}

	for _, tt := range tests {
		if got := Mask(tt.key); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	keyring.MockInit()

	tests := []struct {
		name       string
		configured string
		file       string
		keyring    string
		env        string
		dotenv     string
		want       string
		wantSource Source
		wantErr    error
	}{
		{name: "config wins", configured: "from-config", file: "from-file", env: "from-env", want: "from-config", wantSource: SourceConfig},
		{name: "file is trimmed", file: "  from-file\n", env: "from-env", want: "from-file", wantSource: SourceFile},
		{name: "keyring before env", keyring: "from-keyring", env: "from-env", want: "from-keyring", wantSource: SourceKeyring},
		{name: "env", env: "from-env", want: "from-env", wantSource: SourceEnv},
		{name: "dotenv", dotenv: "CLAUDE_API_KEY=from-dotenv\n", want: "from-dotenv", wantSource: SourceEnv},
		{name: "empty file falls through", file: "\n", wantErr: ErrNoCredential},
		{name: "nothing", wantErr: ErrNoCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(EnvVar, tt.env)
			if tt.env == "" {
				// godotenv never overrides a variable that is already set
				os.Unsetenv(EnvVar)
			}
			_ = DeleteFromKeyring()

			r := Resolver{
				KeyFile:    filepath.Join(dir, "api.txt"),
				EnvFile:    filepath.Join(dir, ".env"),
				UseKeyring: true,
			}
			if tt.file != "" {
				if err := os.WriteFile(r.KeyFile, []byte(tt.file), 0600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.dotenv != "" {
				if err := os.WriteFile(r.EnvFile, []byte(tt.dotenv), 0600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.keyring != "" {
				if err := StoreInKeyring(tt.keyring); err != nil {
					t.Fatal(err)
				}
			}

			got, source, err := r.Resolve(tt.configured)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want || source != tt.wantSource {
				t.Errorf("Resolve() = %q (%s), want %q (%s)", got, source, tt.want, tt.wantSource)
			}
		})
	}
}

func TestStoreInKeyring_Empty(t *testing.T) {
	keyring.MockInit()
	if err := StoreInKeyring(""); err == nil {
		t.Error("expected error for empty key")
	}
}
