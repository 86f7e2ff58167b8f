package gpu

import "errors"

var (
	ErrDeviceDestroyed = errors.New("gpu: device already destroyed")
	ErrDeviceInUse     = errors.New("gpu: device still owns live objects")
	ErrForeignObject   = errors.New("gpu: object belongs to another device")
	ErrObjectDestroyed = errors.New("gpu: object already destroyed")
	ErrNoFences        = errors.New("gpu: wait for any fence needs at least one fence")
	ErrInvalidLength   = errors.New("gpu: buffer length must be positive")
	ErrBufferMismatch  = errors.New("gpu: transfer between incompatible buffers")
	ErrUnexpectedWait  = errors.New("gpu: wait returned an unexpected result")
)
