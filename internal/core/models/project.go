package models

// Default values for a freshly created project document
const (
	DefaultEndpoint       = "https://api.anthropic.com/v1/messages"
	DefaultModel          = "claude-3-sonnet-20240229"
	DefaultProjectName    = "restaurante-sistema"
	DefaultProjectVersion = "0.0.1"
)

// ProjectConfig is the root aggregate persisted in the project document
type ProjectConfig struct {
	API     APIConfig     `json:"api"`
	Project ProjectInfo   `json:"project"`
	Context ContextState  `json:"context"`
	History HistoryConfig `json:"history"`
}

// APIConfig holds the remote endpoint settings. APIKey is sensitive.
type APIConfig struct {
	APIKey   string `json:"claude_api_key"`
	Endpoint string `json:"api_endpoint"`
	Model    string `json:"model"`
}

// ProjectInfo describes the generated application
type ProjectInfo struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Progress float64  `json:"progress"`
	Modules  []Module `json:"modules"`
}

// ContextState tracks which modules are being worked on
type ContextState struct {
	CurrentModule     string   `json:"current_module"`
	CompletedModules  []string `json:"completed_modules"`
	InProgressModules []string `json:"in_progress_modules"`
}

// HistoryConfig holds every recorded session and the cumulative token counter
type HistoryConfig struct {
	Sessions        []Session `json:"sessions"`
	TotalTokensUsed int       `json:"total_tokens_used"`
}

// NewProjectConfig returns a document populated with defaults
func NewProjectConfig() *ProjectConfig {
	cfg := &ProjectConfig{
		API: APIConfig{
			Endpoint: DefaultEndpoint,
			Model:    DefaultModel,
		},
		Project: ProjectInfo{
			Name:    DefaultProjectName,
			Version: DefaultProjectVersion,
		},
	}
	cfg.Normalize()
	return cfg
}

// Normalize replaces nil collections with empty ones so the document always
// serializes lists as [] rather than null
func (c *ProjectConfig) Normalize() {
	if c.Project.Modules == nil {
		c.Project.Modules = []Module{}
	}
	for i := range c.Project.Modules {
		m := &c.Project.Modules[i]
		if m.Files == nil {
			m.Files = []string{}
		}
		if m.Dependencies == nil {
			m.Dependencies = []string{}
		}
	}
	if c.Context.CompletedModules == nil {
		c.Context.CompletedModules = []string{}
	}
	if c.Context.InProgressModules == nil {
		c.Context.InProgressModules = []string{}
	}
	if c.History.Sessions == nil {
		c.History.Sessions = []Session{}
	}
}

// FindModule returns a pointer into the module list, or nil
func (c *ProjectConfig) FindModule(name string) *Module {
	for i := range c.Project.Modules {
		if c.Project.Modules[i].Name == name {
			return &c.Project.Modules[i]
		}
	}
	return nil
}

// ModuleNames lists the registered module names in order
func (c *ProjectConfig) ModuleNames() []string {
	names := make([]string, 0, len(c.Project.Modules))
	for _, m := range c.Project.Modules {
		names = append(names, m.Name)
	}
	return names
}

// AllFiles returns every file registered across modules
func (c *ProjectConfig) AllFiles() []string {
	var files []string
	for _, m := range c.Project.Modules {
		files = append(files, m.Files...)
	}
	return files
}
