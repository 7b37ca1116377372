package callsite

import (
	"fmt"

	"github.com/kbukum/resolvekit/scope"
)

// Location is the caching policy of a call site's result.
type Location byte

const (
	// LocationNone produces a new instance on every resolution.
	LocationNone Location = iota
	// LocationRoot keeps one instance for the lifetime of the container.
	LocationRoot
	// LocationScope keeps one instance per scope.
	LocationScope
)

func (l Location) String() string {
	switch l {
	case LocationNone:
		return "none"
	case LocationRoot:
		return "root"
	case LocationScope:
		return "scope"
	default:
		return fmt.Sprintf("Location(%d)", byte(l))
	}
}

// ResultCache annotates a call site with where its result is cached and
// under which key.
type ResultCache struct {
	Location Location
	Key      scope.Key
}

// NoCache is the annotation of an uncached call site.
var NoCache = ResultCache{Location: LocationNone}
