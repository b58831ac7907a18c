package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/npcgate/npcgate/internal/admin"
	"github.com/npcgate/npcgate/internal/channels"
	"github.com/npcgate/npcgate/internal/config"
	"github.com/npcgate/npcgate/internal/dependency"
)

var (
	gatewayConfigPath string
	gatewayConsole    bool
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the npcgate gateway server",
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().StringVarP(&gatewayConfigPath, "config", "c", "", "Config file path (default ~/.npcgate/config.json)")
	gatewayCmd.Flags().BoolVar(&gatewayConsole, "console", false, "Also run the interactive console channel")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(gatewayConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Claude.APIKey == "" {
		fmt.Fprintf(os.Stderr, "Warning: no API key configured — edit %s; turns will fail until one is set\n", config.ConfigPath())
	}

	c, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	fmt.Println("Starting npcgate gateway...")

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	channelMgr := channels.NewManager(cfg, c.MessageBus(), gatewayConsole)
	if enabled := channelMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}

	adminSrv := admin.NewServer(cfg, c.Store(), c.Metrics())

	g.Go(func() error { return c.Loop().Run(gctx) })
	g.Go(func() error { return c.Sweeper().Start(gctx) })
	g.Go(func() error { return channelMgr.StartAll(gctx) })
	g.Go(func() error { return adminSrv.Start(gctx) })

	fmt.Println("Gateway running. Press Ctrl+C to stop.")

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
