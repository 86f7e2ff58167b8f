package gles

import (
	"fmt"

	"github.com/go-gl/gl/v3.1/gles2"
)

// Error is a GL error code raised by an operation.
type Error struct {
	Op   string
	Code uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("gles: %s failed: %s", e.Op, ErrorString(e.Code))
}

// ErrorString names a glGetError code.
func ErrorString(code uint32) string {
	switch code {
	case gles2.NO_ERROR:
		return "GL_NO_ERROR"
	case gles2.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gles2.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gles2.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gles2.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gles2.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("GL error 0x%04x", code)
	}
}

// checkError drains the GL error queue and reports the first error.
func (d *Device) checkError(op string) error {
	var first uint32 = gles2.NO_ERROR
	for i := 0; i < 8; i++ {
		code := d.cmds.getError()
		if code == gles2.NO_ERROR {
			break
		}
		if first == gles2.NO_ERROR {
			first = code
		}
	}
	if first != gles2.NO_ERROR {
		return &Error{Op: op, Code: first}
	}
	return nil
}
