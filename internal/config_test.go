package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestExportConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Export.Concurrency < 1 || cfg.Export.ImageFormat == "" {
		t.Errorf("export defaults = %+v", cfg.Export)
	}
}

func TestExportConfig_FillsZeroValues(t *testing.T) {
	cfg := ExportConfig{}
	cfg.Output = "out"
	cfg.Attachment = "assets"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Concurrency != 1 || cfg.ImageFormat != "![]({path})" {
		t.Errorf("filled = %d, %q", cfg.Concurrency, cfg.ImageFormat)
	}
}

func TestExportConfig_Invalid(t *testing.T) {
	cases := map[string]func(*ExportConfig){
		"no output":          func(c *ExportConfig) { c.Output = "" },
		"no attachment":      func(c *ExportConfig) { c.Attachment = "" },
		"escaping attach":    func(c *ExportConfig) { c.Attachment = "../up" },
		"absolute custom":    func(c *ExportConfig) { c.CustomAttachPath = "/img" },
		"format placeholder": func(c *ExportConfig) { c.ImageFormat = "![](x)" },
		"nested file name":   func(c *ExportConfig) { c.CustomFileName = "a/b" },
		"concurrency":        func(c *ExportConfig) { c.Concurrency = 65 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig().Export
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_OutputInsideVault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = "vault"
	cfg.Export.Output = "vault/export"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "inside vault") {
		t.Errorf("nested output err = %v", err)
	}

	cfg.Export.Output = "vault"
	if err := cfg.Validate(); err == nil {
		t.Error("output equal to vault should fail")
	}

	cfg.Export.Output = "vault-export"
	if err := cfg.Validate(); err != nil {
		t.Errorf("sibling output should pass: %v", err)
	}
}
