package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/internal/cortex"
	"github.com/veetance/artifice/internal/curation"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
	Dev       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Artifice curation server",
		Long: `Start a local web server that deals sketches from the bank.

Each browser session gets its own deck and sandbox host:
- sketches run in an isolated iframe document
- numeric declarations become live tuning controls
- keep/kill verdicts are recorded in the state database`,
		Example: `  # Serve the default bank on the default port
  artifice serve

  # Serve another bank on a custom port
  artifice serve --bank-dir ./sketches --port 3000

  # Lock the deck to one sketch
  artifice serve --hero terrain.js --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload sketches when bank files change")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Serve static assets from disk with hot reload")
	_ = cmd.Flags().MarkHidden("dev")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, logger, r := cc.Cfg, cc.Logger, cc.Renderer
	uiCfg := cfg.GetUIConfig()

	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	autoOpen := uiCfg.AutoOpen && !opts.NoBrowser
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	sources, err := bank.Discover(cfg.BankDir, cfg.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to read sketch bank: %w", err)
	}
	if len(sources) == 0 && cfg.Hero == "" {
		r.Warning(fmt.Sprintf("No sketches found in %s", cfg.BankDir))
	}

	fetch := cfg.GetFetchConfig()
	registry := curation.NewRegistry(curation.Config{
		Sources: func() ([]string, error) {
			return bank.Discover(cfg.BankDir, cfg.IndexFile)
		},
		Hero:     cfg.Hero,
		Analyzer: cortex.New(cortex.WithPalette(cfg.Brand), cortex.WithLogger(logger)),
		Fetcher: host.NewFetcher(host.FetchConfig{
			BankDir:  cfg.BankDir,
			Timeout:  fetch.Timeout,
			MaxBytes: fetch.MaxBytes,
		}),
		Baseline: cfg.GetBaseline(),
		Store:    cc.Store,
		Logger:   logger,
	})

	secret, err := sessionSecret(uiCfg.SessionSecret)
	if err != nil {
		return err
	}

	server := ui.NewServer(ui.Config{
		Registry:      registry,
		Port:          port,
		Watch:         watch,
		Dev:           opts.Dev,
		SessionSecret: secret,
		BankDir:       cfg.BankDir,
		RuntimeURL:    cfg.RuntimeURL,
		Logger:        logger,
	})

	url := fmt.Sprintf("http://localhost:%d", port)
	if autoOpen {
		go openBrowser(url)
	}

	r.Println(fmt.Sprintf("Dealing %d sketches from %s", len(sources), cfg.BankDir))
	r.Println(fmt.Sprintf("Starting server on %s", url))
	r.Println(r.Muted("Press Ctrl+C to stop"))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// sessionSecret returns the configured cookie secret, or a random one that
// lasts for this process only.
func sessionSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", fmt.Errorf("failed to generate session secret")
	}
	return hex.EncodeToString(key), nil
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
