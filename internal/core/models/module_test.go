package models

import "testing"

func TestModuleAddFiles(t *testing.T) {
	m := Module{Name: "core", Status: StatusPending}

	if n := m.AddFiles("a.php", "b.php", "a.php"); n != 2 {
		t.Errorf("AddFiles() added %d, want 2", n)
	}
	if n := m.AddFiles("b.php", ""); n != 0 {
		t.Errorf("AddFiles() re-added %d, want 0", n)
	}
	if len(m.Files) != 2 || m.Files[0] != "a.php" || m.Files[1] != "b.php" {
		t.Errorf("Files = %v", m.Files)
	}
}

func TestModuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		module  Module
		wantErr bool
	}{
		{"valid", Module{Name: "core", Status: StatusInProgress, Progress: 40}, false},
		{"no name", Module{Status: StatusPending}, true},
		{"bad status", Module{Name: "core", Status: "done"}, true},
		{"bad progress", Module{Name: "core", Status: StatusPending, Progress: 101}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.module.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProjectConfigDefaults(t *testing.T) {
	cfg := NewProjectConfig()
	if cfg.API.Endpoint != DefaultEndpoint || cfg.API.Model != DefaultModel {
		t.Errorf("unexpected API defaults: %+v", cfg.API)
	}
	if cfg.API.APIKey != "" {
		t.Error("default credential should be empty")
	}
	if cfg.Project.Modules == nil || cfg.History.Sessions == nil {
		t.Error("collections should be non-nil after Normalize")
	}
	if cfg.FindModule("core") != nil {
		t.Error("FindModule on empty project should return nil")
	}
}
