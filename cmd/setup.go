package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/npcgate/npcgate/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the npcgate configuration",
	RunE:  runSetup,
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.Save(&cfg, cfgPath); err != nil {
		return err
	}
	fmt.Printf("✓ Created config at %s\n", cfgPath)

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Add your API key to %s\n", cfgPath)
	fmt.Println("     Get one at: https://console.anthropic.com/")
	fmt.Printf("  2. Optionally define personas in %s\n", cfg.PersonasPath())
	fmt.Println("  3. Run: npcgate gateway")
	return nil
}
