package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

var putFile string

var getCmd = &cobra.Command{
	Use:   "get <name|path>",
	Short: "Print a document",
	Long: `Print a singleton document by name (meta, setting, thesis, devices,
system-architecture) or any live document by its logical path.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()
		ctx := context.Background()

		var (
			doc core.Document
			err error
		)
		switch _, named := world.NamedPath(args[0]); {
		case args[0] == "meta":
			doc, err = svc.Meta(ctx)
		case named:
			doc, err = svc.GetNamed(ctx, args[0])
		default:
			doc, err = svc.ReadDocument(ctx, args[0])
		}
		if err != nil {
			fatal("Failed to read document", err)
		}
		printDocument(doc)
	},
}

var putCmd = &cobra.Command{
	Use:   "put <name|path>",
	Short: "Replace a document with YAML from a file or stdin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc := readDocument(putFile)

		svc := openWorld(cmd)
		defer svc.Close()
		ctx := context.Background()

		var err error
		if _, named := world.NamedPath(args[0]); named {
			_, err = svc.PutNamed(ctx, args[0], doc)
		} else {
			_, err = svc.PutDocument(ctx, args[0], doc)
		}
		if err != nil {
			fatal("Failed to save document", err)
		}
		fmt.Printf("Document '%s' saved.\n", args[0])
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <description>",
	Short: "Update the world description in meta.yaml",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		meta, err := svc.UpdateMetaDescription(context.Background(), args[0])
		if err != nil {
			fatal("Failed to update metadata", err)
		}
		printDocument(meta)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the whole world as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		state, err := svc.Load(context.Background())
		if err != nil {
			fatal("Failed to load world", err)
		}
		printJSON(state)
	},
}

func init() {
	rootCmd.AddCommand(getCmd, putCmd, describeCmd, stateCmd)
	getCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	describeCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	putCmd.Flags().StringVarP(&putFile, "file", "f", "-", "YAML file to read (- for stdin)")
}
