package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/termfolio"
	"pkt.systems/termfolio/internal/appconfig"
	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/shell"
	"pkt.systems/termfolio/schema"
	"pkt.systems/termfolio/sshserver"
)

// localOwner keys the preferences of the local terminal user.
const localOwner = schema.OwnerID("local")

func newShellCmd() *cobra.Command {
	var cfgPath string
	var lang string
	var contentFile string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run the portfolio shell in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			inFd := int(os.Stdin.Fd())
			outFd := int(os.Stdout.Fd())
			if !term.IsTerminal(inFd) || !term.IsTerminal(outFd) {
				return errors.New("shell needs an interactive terminal")
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if contentFile != "" {
				cfg.Content.File = contentFile
				cfg.Content.URL = ""
			}

			// The screen belongs to the shell; logs go to a file.
			logPath := filepath.Join(cfg.StateDir, "shell.log")
			if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
				return err
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()
			logger := pslog.NewWithOptions(logFile, pslog.Options{
				Mode:     pslog.ModeStructured,
				NoColor:  true,
				MinLevel: pslog.InfoLevel,
			})

			pipe, err := termfolio.NewPipeline(toServerConfig(cfg), termfolio.ServerDeps{Logger: logger})
			if err != nil {
				return err
			}
			language := sshserver.LocaleLanguage(pipe.Catalog, os.Environ())
			if lang != "" {
				normalized, ok := schema.NormalizeLanguage(lang)
				if !ok || !pipe.Catalog.Supports(normalized) {
					return fmt.Errorf("unsupported language %q", lang)
				}
				language = normalized
			}
			var store persist.KV = persist.NewMemory()
			if pipe.Store != nil {
				store = pipe.Store.Bind(localOwner)
			}

			width, height, err := term.GetSize(outFd)
			if err != nil {
				return err
			}
			state, err := term.MakeRaw(inFd)
			if err != nil {
				return err
			}
			defer func() { _ = term.Restore(inFd, state) }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			ctx = logx.ContextWithOwnerSessionLogger(ctx, logger, localOwner, schema.SessionID(fmt.Sprintf("local-%d", os.Getpid())))
			log := logx.Ctx(ctx)

			display := sshserver.NewTerminal(os.Stdout, cfg.SSH.Prompt, cfg.SSH.Title)
			display.SetSize(width, height)
			clk := clock.Real()
			var sink audio.Sink = audio.NullSink{}
			if cfg.SSH.BellIntervalMS > 0 {
				sink = audio.NewBellSink(display.Writer(), clk, time.Duration(cfg.SSH.BellIntervalMS)*time.Millisecond)
			}
			engine := audio.NewEngine(clk, sink, log)
			defer engine.Close()

			widget := shell.New(shell.Config{
				Display:  display,
				Resolver: pipe.Resolver,
				Catalog:  pipe.Catalog,
				Audio:    engine,
				Profiles: effectProfiles(cfg.Effects),
				Store:    store,
				Clock:    clk,
				Language: language,
				Context:  ctx,
				Logger:   log,
			})
			defer widget.Close()

			log.Info("local shell opened", "lang", language, "width", width, "height", height)
			err = display.Run(ctx, widget, os.Stdin, watchResize(ctx, outFd))
			log.Info("local shell closed", "err", err)
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&lang, "lang", "", "language to start in (defaults to the locale)")
	cmd.Flags().StringVar(&contentFile, "content", "", "use this content file instead of the configured source")
	return cmd
}
