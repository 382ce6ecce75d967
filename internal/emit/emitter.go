// Package emit renders strategy-owned loop templates into platform source
// text. Substitution is purely textual: the collection name, item name, and
// caller-supplied action fragment are inserted verbatim, and the action is
// never parsed, validated, or re-interpreted. Guard wrapping is part of the
// template text itself, toggled by the generation context.
package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"loopforge/internal/engine"
	"loopforge/internal/logging"
)

// Emitter holds one strategy's template set: zero or more per-platform
// templates plus a default in the reference dialect. A missing platform
// entry falls back to the default rather than failing.
type Emitter struct {
	strategyID string
	templates  map[engine.Platform]*template.Template
	fallback   *template.Template
}

// NewEmitter parses the template sources for a strategy. The fallback
// source is required; per-platform sources override it for their dialect.
func NewEmitter(strategyID string, fallbackSource string, sources map[engine.Platform]string) (*Emitter, error) {
	if strings.TrimSpace(fallbackSource) == "" {
		return nil, fmt.Errorf("emitter %s: default template source is empty", strategyID)
	}

	fallback, err := parseTemplate(strategyID, "default", fallbackSource)
	if err != nil {
		return nil, err
	}

	templates := make(map[engine.Platform]*template.Template, len(sources))
	for platform, src := range sources {
		tmpl, err := parseTemplate(strategyID, string(platform), src)
		if err != nil {
			return nil, err
		}
		templates[platform] = tmpl
	}

	return &Emitter{
		strategyID: strategyID,
		templates:  templates,
		fallback:   fallback,
	}, nil
}

// MustEmitter is NewEmitter for compiled-in template tables; a parse
// failure is a programming error.
func MustEmitter(strategyID string, fallbackSource string, sources map[engine.Platform]string) *Emitter {
	e, err := NewEmitter(strategyID, fallbackSource, sources)
	if err != nil {
		panic(err)
	}
	return e
}

func parseTemplate(strategyID, name, src string) (*template.Template, error) {
	tmpl, err := template.New(strategyID + "/" + name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("emitter %s: bad %s template: %w", strategyID, name, err)
	}
	return tmpl, nil
}

// Render produces source text for the generation context. Platform
// resolution: dedicated template if one exists, otherwise the default.
func (e *Emitter) Render(gctx engine.CodeGenContext) (string, error) {
	if err := gctx.Validate(); err != nil {
		return "", err
	}

	tmpl, dedicated := e.templates[gctx.Platform]
	if !dedicated {
		tmpl = e.fallback
	}
	if tmpl == nil {
		// Unreachable for built-in strategies; guarded for externals
		// that construct an emitter without a default.
		return "", fmt.Errorf("%w: %s has no template for platform %s and no default",
			engine.ErrUnsupportedOperation, e.strategyID, gctx.Platform)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, gctx); err != nil {
		return "", fmt.Errorf("emitter %s: render failed: %w", e.strategyID, err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	logging.L(logging.CategoryEmit).Debug("rendered fragment",
		zap.String("strategy", e.strategyID),
		zap.String("platform", string(gctx.Platform)),
		zap.Bool("dedicated", dedicated),
		zap.Int("bytes", len(out)))

	return out, nil
}

// HasTemplate reports whether a dedicated template exists for a platform.
func (e *Emitter) HasTemplate(p engine.Platform) bool {
	_, ok := e.templates[p]
	return ok
}

// DedicatedPlatforms returns the platforms with their own template,
// in canonical order.
func (e *Emitter) DedicatedPlatforms() []engine.Platform {
	var out []engine.Platform
	for _, p := range engine.AllPlatforms() {
		if _, ok := e.templates[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
