package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// EnvConfigDir relocates the settings directory
const EnvConfigDir = "MODFORGE_CONFIG_DIR"

// RequirementsPlaceholder is replaced by the user's requirements in the
// module prompt
const RequirementsPlaceholder = "[Descreva aqui os requisitos específicos para esta etapa do desenvolvimento]"

// DefaultModulePrompt is the mustache template for module prompts. Values
// use triple braces so that code and paths are not HTML-escaped.
const DefaultModulePrompt = `
Estou desenvolvendo um sistema de gestão de restaurantes SaaS em PHP.
Módulo atual: {{{module}}}

## Contexto do Projeto
{{{context}}}

## Status do Desenvolvimento
- Progresso geral: {{progress}}%
- Módulos concluídos:
{{#completed}}
- {{{.}}}
{{/completed}}
{{^completed}}
Nenhum módulo concluído ainda.
{{/completed}}

- Outros módulos em andamento:
{{#in_progress}}
- {{{.}}}
{{/in_progress}}
{{^in_progress}}
Nenhum outro módulo em andamento.
{{/in_progress}}

## Sobre este Módulo
- Descrição: {{{description}}}
- Status: {{status}}
- Progresso: {{module_progress}}%
- Arquivos já criados:
{{#files}}
- {{{.}}}
{{/files}}
{{^files}}
Nenhum arquivo criado ainda para este módulo.
{{/files}}

## Requisitos para o Próximo Passo
{{{requirements}}}

Por favor, forneça:
1. Código para os próximos arquivos necessários para este módulo
2. Instruções de integração com os componentes existentes
3. Orientações para testes e validação
`

// Config holds tool settings. Paths are relative to the working directory
// unless absolute.
type Config struct {
	// BasePath is the absolute root extracted files are written under
	BasePath         string
	BaseDir          string
	CanonicalSegment string
	LegacyPrefix     string
	LeadIns          []string

	SessionsDir string
	LogsDir     string
	BackupsDir  string
	KeyFile     string
	EnvFile     string
	ContextFile string
	IndexDB     string

	Provider   string // "anthropic" or "bedrock"
	UseKeyring bool
	Bedrock    BedrockConfig

	ModulePromptTemplate string

	// Dir is the settings directory the config was loaded from
	Dir string
}

// BedrockConfig selects the AWS Bedrock backend
type BedrockConfig struct {
	Region    string `toml:"region"`
	ModelID   string `toml:"model_id"`
	Profile   string `toml:"profile"`
	MaxTokens int    `toml:"max_tokens"`
}

type tomlConfig struct {
	BasePath         string        `toml:"base_path"`
	BaseDir          string        `toml:"base_dir"`
	CanonicalSegment string        `toml:"root_segment"`
	LegacyPrefix     string        `toml:"legacy_prefix"`
	LeadIns          []string      `toml:"lead_in_phrases"`
	SessionsDir      string        `toml:"sessions_dir"`
	LogsDir          string        `toml:"logs_dir"`
	BackupsDir       string        `toml:"backups_dir"`
	KeyFile          string        `toml:"key_file"`
	EnvFile          string        `toml:"env_file"`
	ContextFile      string        `toml:"context_file"`
	IndexDB          string        `toml:"index_db"`
	Provider         string        `toml:"provider"`
	UseKeyring       *bool         `toml:"use_keyring"`
	Bedrock          BedrockConfig `toml:"bedrock"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		BasePath:             "/Applications/XAMPP/xamppfiles/htdocs/restaurante_sistema",
		BaseDir:              "restaurante-sistema",
		CanonicalSegment:     "restaurante-sistema",
		LegacyPrefix:         "restaurante-saas/",
		SessionsDir:          "sessions",
		LogsDir:              "logs",
		BackupsDir:           "backups",
		KeyFile:              "api.txt",
		EnvFile:              ".env",
		ContextFile:          "project_context.txt",
		IndexDB:              filepath.Join(".modforge", "index.db"),
		Provider:             "anthropic",
		UseKeyring:           true,
		ModulePromptTemplate: DefaultModulePrompt,
	}
}

// DefaultDir returns the settings directory: $MODFORGE_CONFIG_DIR or
// ~/.config/modforge
func DefaultDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "modforge")
}

// Load reads settings from DefaultDir
func Load() (*Config, error) {
	return LoadFrom(DefaultDir())
}

// LoadFrom reads config.toml and module_prompt.txt from dir. Missing files
// keep the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()
	cfg.Dir = dir
	if dir == "" {
		return cfg, nil
	}

	tomlPath := filepath.Join(dir, "config.toml")
	var tc tomlConfig
	if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
	} else {
		cfg.apply(tc)
	}

	promptPath := filepath.Join(dir, "module_prompt.txt")
	if data, err := os.ReadFile(promptPath); err == nil && strings.TrimSpace(string(data)) != "" {
		cfg.ModulePromptTemplate = string(data)
	}

	return cfg, nil
}

func (c *Config) apply(tc tomlConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.BasePath, tc.BasePath)
	set(&c.BaseDir, tc.BaseDir)
	set(&c.CanonicalSegment, tc.CanonicalSegment)
	set(&c.LegacyPrefix, tc.LegacyPrefix)
	set(&c.SessionsDir, tc.SessionsDir)
	set(&c.LogsDir, tc.LogsDir)
	set(&c.BackupsDir, tc.BackupsDir)
	set(&c.KeyFile, tc.KeyFile)
	set(&c.EnvFile, tc.EnvFile)
	set(&c.ContextFile, tc.ContextFile)
	set(&c.IndexDB, tc.IndexDB)
	set(&c.Provider, strings.ToLower(tc.Provider))

	c.LeadIns = append(c.LeadIns, tc.LeadIns...)
	if tc.UseKeyring != nil {
		c.UseKeyring = *tc.UseKeyring
	}
	c.Bedrock = tc.Bedrock
}
