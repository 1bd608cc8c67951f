package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/viciharvest.yaml
var workListTemplate embed.FS

// workListFileName is the default work-list file name.
const workListFileName = ".viciharvest"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new viciharvest work-list file",
		Long: `Initialize creates a new .viciharvest work-list file in the current directory.

The generated file includes:
- Example work entries with priorities and index hints
- A commented curated-table override section
- Documentation for all available options

Examples:
  # Create .viciharvest in current directory
  viciharvest init

  # Create the work list at a specific path
  viciharvest init -o works.yaml

  # Force overwrite existing file
  viciharvest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", workListFileName,
		"Output file path for the work list")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing work-list file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("work-list file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := workListTemplate.ReadFile("templates/viciharvest.yaml")
	if err != nil {
		return fmt.Errorf("failed to read work-list template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write work-list file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write work-list file: %w", err)
	}

	fmt.Printf("Created work-list file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - The works to harvest and their priorities")
	fmt.Println("  - Index hints for pages the classifier would miss")
	fmt.Println("  - Curated chapter lists for works with unusual layouts")

	return nil
}
