//go:build !unix

package main

import (
	"context"

	"pkt.systems/termfolio/sshserver"
)

// watchResize has no resize notifications to offer; the size stays as first read.
func watchResize(context.Context, int) <-chan sshserver.Size {
	return nil
}
