// Package device implements the client side of the two debug services an
// Android device exposes over forwarded TCP ports: the view server, which
// answers one query per connection, and the monkey, which keeps one
// connection open for a stream of input commands.
package device

import "context"

// Transport is the host-side control channel to a device. It starts
// on-device services, forwards ports and runs shell commands. All methods
// block until the operation completes.
type Transport interface {
	// StartService launches a long-running on-device command and returns
	// a handle on it.
	StartService(ctx context.Context, argv ...string) (Process, error)

	// ForwardPort forwards host TCP port local to device port remote.
	ForwardPort(ctx context.Context, local, remote int) error

	// Shell runs a command on the device and returns its stdout.
	Shell(ctx context.Context, argv ...string) (string, error)
}

// Process is a service started through Transport.StartService.
type Process interface {
	// Terminate stops the process. It is not an error if the process has
	// already exited.
	Terminate() error

	// Exited reports whether the process has stopped.
	Exited() bool
}
