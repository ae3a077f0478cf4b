// Package route maps incoming webhook paths to backend invocation modes.
package route

import (
	"fmt"
	"strings"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// Error reports a path that does not match any known endpoint pattern, or a
// dynamic request that conflicts with a statically configured application.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot route %q: %s", e.Path, e.Reason)
}

// ConfigError reports a static endpoint hit without a configured application.
type ConfigError struct {
	Mode types.Mode
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s endpoint requires static_app_id to be configured", e.Mode)
}

// Resolve derives the invocation mode and target application id from the
// request path. The four endpoint patterns are mutually exclusive:
//
//	/chatflow/<app_id>  dynamic chat
//	/workflow/<app_id>  dynamic workflow
//	/single-chatflow    static chat (app id from configuration)
//	/single-workflow    static workflow (app id from configuration)
//
// When static_app_id is configured, dynamic paths are only accepted for that
// exact id; any other id is rejected rather than silently served.
func Resolve(path string, cfg *config.EndpointConfig) (types.RouteDecision, error) {
	path = strings.TrimSuffix(path, "/")

	switch path {
	case "/single-chatflow":
		if cfg.StaticAppID == "" {
			return types.RouteDecision{}, &ConfigError{Mode: types.ModeStaticChat}
		}
		return types.RouteDecision{Mode: types.ModeStaticChat, AppID: cfg.StaticAppID}, nil
	case "/single-workflow":
		if cfg.StaticAppID == "" {
			return types.RouteDecision{}, &ConfigError{Mode: types.ModeStaticWorkflow}
		}
		return types.RouteDecision{Mode: types.ModeStaticWorkflow, AppID: cfg.StaticAppID}, nil
	}

	if appID, ok := dynamicSegment(path, "/chatflow/"); ok {
		if err := checkStatic(path, appID, cfg); err != nil {
			return types.RouteDecision{}, err
		}
		return types.RouteDecision{Mode: types.ModeDynamicChat, AppID: appID}, nil
	}
	if appID, ok := dynamicSegment(path, "/workflow/"); ok {
		if err := checkStatic(path, appID, cfg); err != nil {
			return types.RouteDecision{}, err
		}
		return types.RouteDecision{Mode: types.ModeDynamicWorkflow, AppID: appID}, nil
	}

	return types.RouteDecision{}, &Error{Path: path, Reason: "unknown endpoint"}
}

// dynamicSegment extracts the single trailing app id segment after prefix.
func dynamicSegment(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	id := path[len(prefix):]
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func checkStatic(path, appID string, cfg *config.EndpointConfig) error {
	if cfg.StaticAppID != "" && appID != cfg.StaticAppID {
		return &Error{Path: path, Reason: "dynamic routing is restricted to the configured application"}
	}
	return nil
}
