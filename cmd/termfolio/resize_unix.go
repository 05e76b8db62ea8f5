//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"pkt.systems/termfolio/sshserver"
)

// watchResize reports the terminal size on every SIGWINCH until ctx is done.
func watchResize(ctx context.Context, fd int) <-chan sshserver.Size {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, unix.SIGWINCH)
	out := make(chan sshserver.Size, 1)
	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				width, height, err := term.GetSize(fd)
				if err != nil {
					continue
				}
				select {
				case out <- sshserver.Size{Width: width, Height: height}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
