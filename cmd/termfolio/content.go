package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termfolio"
	"pkt.systems/termfolio/internal/appconfig"
	"pkt.systems/termfolio/internal/cache"
	"pkt.systems/termfolio/internal/portfolio"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect and scaffold portfolio content",
	}
	cmd.AddCommand(newContentCheckCmd())
	cmd.AddCommand(newContentInitCmd())
	return cmd
}

func newContentCheckCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a content file, or fetch the configured content source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return checkContentFile(out, args[0])
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			switch {
			case strings.TrimSpace(cfg.Content.File) != "":
				return checkContentFile(out, cfg.Content.File)
			case strings.TrimSpace(cfg.Content.URL) != "":
				return checkContentSource(cmd.Context(), out, toContentConfig(cfg.Content))
			default:
				content, err := portfolio.ParseYAML(portfolio.SampleYAML())
				if err != nil {
					return err
				}
				return reportContent(out, "built-in sample", content)
			}
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func checkContentFile(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	content, err := portfolio.ParseYAML(data)
	if err != nil {
		return err
	}
	return reportContent(out, path, content)
}

func reportContent(out io.Writer, name string, content portfolio.Content) error {
	problems := content.Validate()
	for _, problem := range problems {
		_, _ = fmt.Fprintf(out, "%s: %s\n", name, problem)
	}
	if len(problems) > 0 {
		return fmt.Errorf("content has %d problem(s)", len(problems))
	}
	_, err := fmt.Fprintf(out, "%s: ok (%d skills, %d projects, %d experience, %d education)\n",
		name, len(content.Skills), len(content.Projects), len(content.Experience), len(content.Education))
	return err
}

// checkContentSource fetches every collection once and reports which ones loaded.
func checkContentSource(ctx context.Context, out io.Writer, cfg termfolio.ContentConfig) error {
	src, err := termfolio.NewSource(cfg)
	if err != nil {
		return err
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = portfolio.DefaultHTTPTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	content := cache.New(src, pslog.Ctx(ctx))
	loadErr := content.EnsureLoaded(fetchCtx)

	status := content.Status()
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "ok"
		if !status[name] {
			state = "missing"
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", name, state)
	}
	if loadErr != nil {
		return fmt.Errorf("content fetch: %w", loadErr)
	}
	return nil
}

func newContentInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write an example content file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := writeSampleContent(path, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "content written to %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func writeSampleContent(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("content already exists at %s", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, portfolio.SampleYAML(), 0o644)
}

func toContentConfig(cfg appconfig.ContentConfig) termfolio.ContentConfig {
	return termfolio.ContentConfig{
		File:          cfg.File,
		URL:           cfg.URL,
		Watch:         cfg.Watch,
		WatchDebounce: time.Duration(cfg.WatchDebounceMS) * time.Millisecond,
		FetchTimeout:  time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
	}
}
