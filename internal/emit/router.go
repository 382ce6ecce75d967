package emit

import (
	"fmt"

	"loopforge/internal/engine"
)

// CodeEmitter is the slice of a strategy the router needs.
type CodeEmitter interface {
	ID() string
	EmitCode(gctx engine.CodeGenContext) (string, error)
}

// Batch emits one fragment per requested platform. Entries are fully
// independent: each platform gets its own context copy and its own
// template resolution, with no shared state between them.
func Batch(em CodeEmitter, gctx engine.CodeGenContext, platforms []engine.Platform) (map[engine.Platform]string, error) {
	if len(platforms) == 0 {
		platforms = engine.AllPlatforms()
	}

	out := make(map[engine.Platform]string, len(platforms))
	for _, platform := range platforms {
		pctx := gctx
		pctx.Platform = platform

		code, err := em.EmitCode(pctx)
		if err != nil {
			return nil, fmt.Errorf("batch emission for %s: %w", platform, err)
		}
		out[platform] = code
	}
	return out, nil
}
