package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/nihongo/internal/catalog"
)

var (
	packPath  string
	packForce bool
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Manage the offline lesson pack",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the bundled starter lessons",
		Args:  cobra.NoArgs,
		RunE:  runPackInitCmd,
	}
	initCmd.Flags().StringVar(&packPath, "path", "", "destination (default: XDG config dir)")
	initCmd.Flags().BoolVar(&packForce, "force", false, "overwrite an existing pack")
	cmd.AddCommand(initCmd)
	return cmd
}

func runPackInitCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	path := resolvePackPath(s, packPath)
	if err := catalog.WriteStarterPack(path, packForce); err != nil {
		return err
	}
	pack, err := catalog.LoadPack(path)
	if err != nil {
		return fmt.Errorf("failed to verify lesson pack: %w", err)
	}
	units, err := pack.Units(context.Background(), 0)
	if err != nil {
		return err
	}
	logf(cmd.OutOrStdout(), "Wrote %d units (%d lessons) to %s\n", len(units), len(catalog.Lessons(units)), path)
	return nil
}
