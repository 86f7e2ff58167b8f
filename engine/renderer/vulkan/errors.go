package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Error is a failed Vulkan call.
type Error struct {
	Op     string
	Result vk.Result
}

func newError(op string, res vk.Result) *Error {
	return &Error{Op: op, Result: res}
}

func (e *Error) Error() string {
	return fmt.Sprintf("vulkan: %s failed: %s", e.Op, VulkanResultString(e.Result, true))
}

// DeviceLost reports whether the device can no longer be used.
func (e *Error) DeviceLost() bool {
	return e.Result == vk.ErrorDeviceLost
}
