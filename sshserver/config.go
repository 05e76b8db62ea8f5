package sshserver

import "time"

// Config defines SSH server settings.
type Config struct {
	Addr        string
	HostKeyPath string
	Prompt      string
	Title       string
	// BellInterval throttles terminal bells rung for alarm tones. Zero disables them.
	BellInterval time.Duration
}
