package declarative

import "errors"

var (
	// ErrDeviceManagerChanged means the SDK returned a different device
	// manager than the one already wrapped. The SDK is expected to hand out a
	// single instance, so this is a configuration error, not a transient one.
	ErrDeviceManagerChanged = errors.New("declarative: sdk returned a different device manager instance")

	ErrNoRendererFactory = errors.New("declarative: no renderer factory configured")
)
