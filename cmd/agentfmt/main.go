// Command agentfmt normalizes line-delimited JSON event streams emitted by
// AI agent CLIs into one discriminated event model, then renders that model
// as colored terminal output, an HTML fragment, or pass-through JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentfmt/agentfmt/internal/events"
	"github.com/agentfmt/agentfmt/internal/format"
)

var v = viper.New()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentfmt [files...]",
		Short: "Normalize and render AI agent CLI event streams",
		Long: "agentfmt reads line-delimited JSON event streams from Claude Code, " +
			"Codex CLI, and similar agent tools, normalizes them into one event " +
			"model, and renders that model as ANSI terminal text, an HTML " +
			"fragment, or pass-through JSON. Reads stdin when no file is given.",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	flags := cmd.Flags()
	flags.StringP("vendor", "v", "auto", "vendor dialect: auto, A, B, or C")
	flags.StringP("format", "f", "ansi", "output format: ansi, html, or json")
	flags.Bool("html", false, "shorthand for --format html")
	flags.Bool("json", false, "shorthand for --format json")
	flags.Bool("collapse-tools", false, "collapse tool output into a one-line summary")
	flags.Bool("hide-tools", false, "suppress tool events")
	flags.Bool("hide-cost", false, "suppress cost events")
	flags.Bool("hide-debug", false, "suppress debug events")
	flags.StringSlice("only", nil, "comma-separated list of event kinds to keep")
	flags.StringP("output", "o", "", "write rendered output to this file instead of stdout")
	flags.Float64("pace", 0, "replay events at this many per second (0 disables pacing)")
	flags.Bool("stats", false, "print a per-file event count summary to stderr")
	flags.String("config", "", "path to a YAML config file")
	flags.Bool("no-color", false, "disable ANSI color codes")

	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags().Lookup("config").Value.String())
	if err != nil {
		return err
	}
	bindViper(v, cfg)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	opts, err := resolveRunOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		args = []string{"-"}
	}
	return runFiles(ctx, args, opts)
}

// resolveRunOptions layers cobra flags (already bound to viper, which in
// turn carries the config-file defaults) into a runOptions value.
func resolveRunOptions(cmd *cobra.Command) (runOptions, error) {
	encoding := format.Encoding(v.GetString("format"))
	if htmlShort, _ := cmd.Flags().GetBool("html"); htmlShort {
		encoding = format.HTML
	}
	if jsonShort, _ := cmd.Flags().GetBool("json"); jsonShort {
		encoding = format.JSON
	}
	switch encoding {
	case format.ANSI, format.HTML, format.JSON:
	default:
		return runOptions{}, fmt.Errorf("agentfmt: unknown format %q", encoding)
	}

	only, err := parseOnly(v.GetStringSlice("only"))
	if err != nil {
		return runOptions{}, err
	}

	return runOptions{
		Vendor:           v.GetString("vendor"),
		Format:           encoding,
		CollapseTools:    v.GetBool("collapse-tools"),
		HideTools:        v.GetBool("hide-tools"),
		HideCost:         v.GetBool("hide-cost"),
		HideDebug:        v.GetBool("hide-debug"),
		Only:             only,
		ColorDisabled:    v.GetBool("no-color"),
		Output:           v.GetString("output"),
		PaceEventsPerSec: v.GetFloat64("pace"),
		Stats:            v.GetBool("stats"),
	}, nil
}

// parseOnly maps the --only csv flag's event-kind names to events.Kind
// values, nil meaning "no filter" (all kinds allowed).
func parseOnly(names []string) (map[events.Kind]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kinds := map[string]events.Kind{
		"message": events.KindMessage,
		"tool":    events.KindTool,
		"cost":    events.KindCost,
		"error":   events.KindError,
		"debug":   events.KindDebug,
	}
	only := make(map[events.Kind]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(strings.ToLower(raw))
		kind, ok := kinds[name]
		if !ok {
			return nil, fmt.Errorf("agentfmt: unknown event kind %q in --only", raw)
		}
		only[kind] = true
	}
	return only, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		code := 1
		var ee exitError
		if errors.As(err, &ee) && ee.code != 0 {
			code = ee.code
		}
		fmt.Fprintln(os.Stderr, "agentfmt:", err)
		os.Exit(code)
	}
}
