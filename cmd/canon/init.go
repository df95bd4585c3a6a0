package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/internal/platform"
)

var initDescription string

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a canon world",
	Long: `Create the world directory (and git repository unless --gitless) and seed
the structural documents: meta.yaml, the domain registry, the open-questions
ledger and the singleton documents. Existing documents are kept.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd, platform.WithAutoInit(true))
		defer svc.Close()

		created, err := svc.Seed(context.Background(), initDescription)
		if err != nil {
			fatal("Failed to seed world", err)
		}
		for _, p := range created {
			fmt.Println("created", p)
		}
		fmt.Println("Initialized canon world in", worldURI(cmd))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "description", "d", "", "World description stored in meta.yaml")
}
