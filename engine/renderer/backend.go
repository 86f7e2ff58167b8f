package renderer

import (
	"fmt"
	"strings"
)

// Backend selects the graphics API a device is created with.
type Backend uint8

const (
	Vulkan Backend = iota
	GLES2
)

func (b Backend) String() string {
	switch b {
	case Vulkan:
		return "vulkan"
	case GLES2:
		return "gles2"
	default:
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
}

// ParseBackend maps a configuration name to a Backend. Names are case
// insensitive; "gles" and "opengles" are accepted for GLES2.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vulkan", "vk":
		return Vulkan, nil
	case "gles2", "gles", "opengles":
		return GLES2, nil
	default:
		return 0, fmt.Errorf("unknown renderer backend %q", name)
	}
}
