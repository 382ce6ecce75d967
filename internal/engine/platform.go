package engine

import (
	"fmt"
	"strings"
)

// Platform identifies a target execution environment for selection and
// code emission. The set is closed: strategies declare compatibility
// against these values and emitters key their template tables on them.
type Platform string

const (
	// PlatformDotnet is the generic managed runtime. It doubles as the
	// reference dialect: emission falls back to it when a strategy has no
	// template for the requested platform.
	PlatformDotnet Platform = "dotnet"

	// PlatformBrowser is a browser or WASM script target.
	PlatformBrowser Platform = "browser"

	// PlatformMobile is a constrained mobile managed runtime.
	PlatformMobile Platform = "mobile"

	// PlatformServer is a server-class multicore managed runtime.
	PlatformServer Platform = "server"

	// PlatformUnity is a game-engine runtime with frame-time constraints.
	PlatformUnity Platform = "unity"
)

// AllPlatforms returns every known platform in canonical order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformDotnet,
		PlatformBrowser,
		PlatformMobile,
		PlatformServer,
		PlatformUnity,
	}
}

// ParsePlatform converts a user-supplied name into a Platform.
// Matching is case-insensitive and accepts a few common aliases.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dotnet", "managed", "clr":
		return PlatformDotnet, nil
	case "browser", "wasm", "web", "js", "javascript":
		return PlatformBrowser, nil
	case "mobile", "maui":
		return PlatformMobile, nil
	case "server", "multicore":
		return PlatformServer, nil
	case "unity", "game", "game-engine":
		return PlatformUnity, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
}

// String returns the canonical platform name.
func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformDotnet, PlatformBrowser, PlatformMobile, PlatformServer, PlatformUnity:
		return true
	}
	return false
}
