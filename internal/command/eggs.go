package command

import (
	"context"

	"pkt.systems/termfolio/schema"
)

// Easter eggs print their localized lines. They are hidden from help only.
var eggNames = []string{
	"matrix", "undertale", "coffee", "sudo", "hack", "konami",
	"pokemon", "pizza", "vim", "42", "debug", "emoji", "rm",
}

func registerEggs(reg *Registry) {
	for _, name := range eggNames {
		reg.MustRegister(name, eggHandler("eggs."+name), Info{Hidden: true})
	}
}

func eggHandler(key string) Handler {
	return func(_ context.Context, req Request) (schema.CommandResult, error) {
		return lines(req.T.Lines(key)...), nil
	}
}
