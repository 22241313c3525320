//go:build !unix

package execaction

import "os/exec"

// killProcessGroup keeps the default cancellation, which kills only the
// direct child. WaitDelay still bounds Run.
func killProcessGroup(*exec.Cmd) {}
