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

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEnhanceConfig_InvalidEndpoint(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enhance.Endpoint = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid endpoint should fail validation")
	}
}

func TestEnhanceConfig_InvalidDetail(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enhance.Detail = "ultra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown detail should fail validation")
	}
}

func TestEnhanceConfig_Client(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enhance.Model = "gpt-4o"
	cc := cfg.Enhance.Client()
	if cc.Model != "gpt-4o" || cc.Endpoint != cfg.Enhance.Endpoint || cc.Timeout != cfg.Enhance.Timeout {
		t.Errorf("client config = %+v", cc)
	}
}

func TestStoreConfig_Required(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.ImagesPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty images path should fail validation")
	}
}

func TestLocaleConfig_DetectNeedsLanguages(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Locale.Detect = true
	cfg.Locale.Languages = []string{"en"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("detection with a single language should fail validation")
	}
	cfg.Locale.Languages = []string{"en", "de"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("two languages should pass: %v", err)
	}
}

func TestRasterConfig_Scale(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Raster.Scale = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero scale should fail validation")
	}
}
