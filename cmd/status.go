package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/npcgate/npcgate/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show npcgate configuration status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Println("npcgate Status")
	fmt.Println()

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:        %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	keyMark := "✗ (not set)"
	if cfg.Claude.APIKey != "" {
		keyMark = "✓"
	}
	fmt.Printf("API key:       %s\n", keyMark)
	fmt.Printf("Model:         %s\n", cfg.Claude.Model)
	fmt.Printf("History pairs: %d\n", cfg.NPC.HistoryPairs)
	if cfg.NPC.IdleTimeoutMinutes > 0 {
		fmt.Printf("Idle timeout:  %d min\n", cfg.NPC.IdleTimeoutMinutes)
	} else {
		fmt.Printf("Idle timeout:  disabled\n")
	}

	personas, err := config.LoadPersonas(cfg.PersonasPath(), cfg.NPC.DefaultPersonality)
	if err != nil {
		fmt.Printf("Personas:      (could not load: %v)\n", err)
		return nil
	}
	fmt.Printf("Personas:      %d registered (%s)\n", personas.Len(), cfg.PersonasPath())
	return nil
}
