package route

import (
	"errors"
	"testing"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

func TestResolve_DynamicRoutes(t *testing.T) {
	cfg := &config.EndpointConfig{}

	tests := []struct {
		path     string
		wantMode types.Mode
		wantApp  string
	}{
		{"/chatflow/app123", types.ModeDynamicChat, "app123"},
		{"/workflow/wf-1", types.ModeDynamicWorkflow, "wf-1"},
		{"/chatflow/app123/", types.ModeDynamicChat, "app123"},
	}

	for _, tt := range tests {
		decision, err := Resolve(tt.path, cfg)
		if err != nil {
			t.Errorf("Resolve(%q) unexpected error: %v", tt.path, err)
			continue
		}
		if decision.Mode != tt.wantMode {
			t.Errorf("Resolve(%q) mode = %s, want %s", tt.path, decision.Mode, tt.wantMode)
		}
		if decision.AppID != tt.wantApp {
			t.Errorf("Resolve(%q) app_id = %s, want %s", tt.path, decision.AppID, tt.wantApp)
		}
	}
}

func TestResolve_StaticRoutes(t *testing.T) {
	cfg := &config.EndpointConfig{StaticAppID: "static-app"}

	decision, err := Resolve("/single-chatflow", cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Mode != types.ModeStaticChat || decision.AppID != "static-app" {
		t.Errorf("got %+v, want static-chat/static-app", decision)
	}

	decision, err = Resolve("/single-workflow", cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.Mode != types.ModeStaticWorkflow || decision.AppID != "static-app" {
		t.Errorf("got %+v, want static-workflow/static-app", decision)
	}
}

func TestResolve_StaticRouteWithoutStaticAppID(t *testing.T) {
	cfg := &config.EndpointConfig{}

	for _, path := range []string{"/single-chatflow", "/single-workflow"} {
		_, err := Resolve(path, cfg)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Resolve(%q) error = %v, want ConfigError", path, err)
		}
	}
}

func TestResolve_UnknownPaths(t *testing.T) {
	cfg := &config.EndpointConfig{}

	paths := []string{
		"/",
		"/chatflow",
		"/chatflow/",
		"/chatflow/a/b",
		"/workflows/app123",
		"/single-chatflow/extra",
		"/totally/unrelated",
	}

	for _, path := range paths {
		_, err := Resolve(path, cfg)
		var routeErr *Error
		if !errors.As(err, &routeErr) {
			t.Errorf("Resolve(%q) error = %v, want routing Error", path, err)
		}
	}
}

func TestResolve_DynamicRestrictedByStaticAppID(t *testing.T) {
	cfg := &config.EndpointConfig{StaticAppID: "only-app"}

	// The configured id is still reachable dynamically.
	decision, err := Resolve("/chatflow/only-app", cfg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if decision.AppID != "only-app" {
		t.Errorf("app_id = %s, want only-app", decision.AppID)
	}

	// Any other id is rejected.
	_, err = Resolve("/workflow/other-app", cfg)
	var routeErr *Error
	if !errors.As(err, &routeErr) {
		t.Fatalf("error = %v, want routing Error", err)
	}
}
