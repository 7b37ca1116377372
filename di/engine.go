package di

import (
	"fmt"
	"strings"
)

// Engine selects how the container realizes a call site.
type Engine int

const (
	// EngineDynamic interprets a call site until it has been resolved
	// CompileAfter times, then compiles it in the background and switches
	// over once the resolver is ready.
	EngineDynamic Engine = iota
	// EngineCompiled compiles a call site on its first resolution.
	EngineCompiled
	// EngineInterpreted never compiles.
	EngineInterpreted
)

func (e Engine) String() string {
	switch e {
	case EngineDynamic:
		return "dynamic"
	case EngineCompiled:
		return "compiled"
	case EngineInterpreted:
		return "interpreted"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// ParseEngine parses "compiled", "interpreted" or "dynamic".
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dynamic":
		return EngineDynamic, nil
	case "compiled":
		return EngineCompiled, nil
	case "interpreted":
		return EngineInterpreted, nil
	default:
		return EngineDynamic, fmt.Errorf("unknown engine %q", s)
	}
}
