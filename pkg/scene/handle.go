package scene

import (
	"fmt"

	"github.com/taigrr/diorama/pkg/spatial"
)

// Pass is the render pass a shape is drawn in.
type Pass uint8

const (
	PassOpaque  Pass = iota // depth tested, nearest first
	PassAlpha               // depth tested and blended, farthest first
	PassOverlay             // screen space, insertion order
)

func (p Pass) String() string {
	switch p {
	case PassOpaque:
		return "opaque"
	case PassAlpha:
		return "alpha"
	case PassOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("pass(%d)", p)
	}
}

// Flags select the pass a new shape is routed to. A shape with neither
// camera nor fog is an overlay; otherwise it is blended when Blending is
// set and opaque when not.
type Flags struct {
	Blending bool
	Fog      bool
	Camera   bool
}

// Handle identifies one shape. Its pass is fixed at creation; the index
// slot beneath it changes whenever the shape moves and is never exposed.
type Handle struct {
	owner     *Registry
	pass      Pass
	key       spatial.Key // opaque and alpha
	slot      int         // overlay
	destroyed bool
}

// Pass returns the render pass of the shape.
func (h *Handle) Pass() Pass {
	return h.pass
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil handle>"
	}
	state := ""
	if h.destroyed {
		state = " destroyed"
	}
	if h.pass == PassOverlay {
		return fmt.Sprintf("%v #%d%s", h.pass, h.slot, state)
	}
	return fmt.Sprintf("%v %v%s", h.pass, h.key, state)
}
