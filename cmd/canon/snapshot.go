package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var snapshotNotes string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Seal, inspect and restore whole-world snapshots",
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <version>",
	Short: "Capture the current world under a version",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		res, err := svc.CreateSnapshot(context.Background(), args[0], snapshotNotes)
		if err != nil {
			fatal("Failed to create snapshot", err)
		}
		fmt.Printf("Version '%s' created at %s.\n", res.Snapshot.Version, res.Path)
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest version first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		infos, err := svc.ListSnapshots(context.Background())
		if err != nil {
			fatal("Failed to list snapshots", err)
		}
		if outputJSON {
			printJSON(infos)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tCREATED\tNOTES")
		for _, info := range infos {
			notes := info.Notes
			if info.Error != "" {
				notes = "(" + info.Error + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Version, info.Created, notes)
		}
		w.Flush()
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <version>",
	Short: "Print a snapshot record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		snap, err := svc.GetSnapshot(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read snapshot", err)
		}
		printJSON(snap)
	},
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore <version>",
	Short: "Overwrite the live documents with a snapshot",
	Long: `Write every document captured in the snapshot back to the live store.
Documents created after the snapshot are left in place.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		if err := svc.RestoreSnapshot(context.Background(), args[0]); err != nil {
			fatal("Failed to restore snapshot", err)
		}
		fmt.Printf("Restored version '%s'.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotListCmd, snapshotShowCmd, snapshotRestoreCmd)

	snapshotCreateCmd.Flags().StringVarP(&snapshotNotes, "notes", "n", "", "Release notes stored with the snapshot")
	snapshotListCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
}
