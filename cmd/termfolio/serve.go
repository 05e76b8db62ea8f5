package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termfolio"
	"pkt.systems/termfolio/httpapi"
	"pkt.systems/termfolio/internal/appconfig"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/schema"
	"pkt.systems/termfolio/sshserver"
)

//go:embed assets/banner.txt
var serveBanner string

func newServeCmd() *cobra.Command {
	var cfgPath string
	var disableAuditTrails bool
	var noBanner bool
	var contentFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the termfolio web and SSH hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			showBanner := !noBanner && logMode != "json" && logMode != "structured"
			if showBanner && serveBanner != "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), serveBanner)
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if disableAuditTrails {
				cfg.Logging.DisableAuditTrails = true
			}
			if contentFile != "" {
				cfg.Content.File = contentFile
				cfg.Content.URL = ""
			}

			serverCfg := toServerConfig(cfg)
			var opts []termfolio.ServerOption
			if cfg.HTTP.Enabled {
				opts = append(opts, termfolio.WithHTTP())
			}
			if cfg.SSH.Enabled {
				opts = append(opts, termfolio.WithSSH())
			}
			server, err := termfolio.New(serverCfg, termfolio.ServerDeps{Logger: logger}, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&contentFile, "content", "", "serve this content file instead of the configured source")
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	return cmd
}

func toServerConfig(cfg appconfig.Config) termfolio.ServerConfig {
	return termfolio.ServerConfig{
		HTTP:                toHTTPConfig(cfg.HTTP),
		SSH:                 toSSHConfig(cfg.SSH),
		Content:             toContentConfig(cfg.Content),
		PrefsDir:            cfg.PrefsDir(),
		Profiles:            effectProfiles(cfg.Effects),
		DisableAuditLogging: cfg.Logging.DisableAuditTrails,
	}
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:             cfg.Addr,
		SessionCookie:    cfg.SessionCookie,
		SessionTTLHours:  cfg.SessionTTLHours,
		SessionStorePath: cfg.SessionStorePath,
		IdleTimeout:      time.Duration(cfg.IdleTimeoutMinutes) * time.Minute,
		BaseURL:          cfg.BaseURL,
		BasePath:         cfg.BasePath,
		Prompt:           cfg.Prompt,
		Title:            cfg.Title,
		ReplayEvents:     cfg.ReplayEvents,
		UIMaxBufferLines: cfg.UIMaxBufferLines,
		Tones:            cfg.Tones,
	}
}

func toSSHConfig(cfg appconfig.SSHConfig) sshserver.Config {
	return sshserver.Config{
		Addr:         cfg.Addr,
		HostKeyPath:  cfg.HostKeyPath,
		Prompt:       cfg.Prompt,
		Title:        cfg.Title,
		BellInterval: time.Duration(cfg.BellIntervalMS) * time.Millisecond,
	}
}

// effectProfiles applies the configured tuning on top of the built-in table.
func effectProfiles(cfg appconfig.EffectsConfig) effect.Profiles {
	base := effect.DefaultProfiles()
	tuning := map[schema.EffectMode]appconfig.TuningConfig{
		schema.ModeNormal:    cfg.Normal,
		schema.ModeHack:      cfg.Hack,
		schema.ModeUndertale: cfg.Undertale,
	}
	out := make(effect.Profiles, len(base))
	for mode, prof := range base {
		out[mode] = effect.Tune(prof, toTuning(tuning[mode]))
	}
	return out
}

func toTuning(cfg appconfig.TuningConfig) effect.Tuning {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return effect.Tuning{
		CharDelayMin: ms(cfg.CharDelayMinMS),
		CharDelayMax: ms(cfg.CharDelayMaxMS),
		LinePause:    ms(cfg.LinePauseMS),
		BurstChance:  cfg.BurstChance,
		AlarmShare:   cfg.AlarmShare,
		RestoreDelay: ms(cfg.RestoreDelayMS),
	}
}
