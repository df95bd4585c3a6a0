package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/pkg/world"
)

var domainInput world.DomainInput

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage the domain registry",
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains in registry order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		domains, err := svc.ListDomains(context.Background())
		if err != nil {
			fatal("Failed to list domains", err)
		}
		if outputJSON {
			printJSON(domains)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER\tID\tNAME\tSTATUS\tVERSION")
		for _, d := range domains {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.Order, d.ID, d.Name, d.Status, d.Version)
		}
		w.Flush()
	},
}

var domainGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a domain document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		doc, err := svc.GetDomain(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read domain", err)
		}
		printDocument(doc)
	},
}

var domainCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Register a new domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		in := domainInput
		in.ID = args[0]
		if in.Name == "" {
			in.Name = in.ID
		}
		if _, err := svc.CreateDomain(context.Background(), in); err != nil {
			fatal("Failed to create domain", err)
		}
		fmt.Printf("Domain '%s' created.\n", in.ID)
	},
}

var domainPutFile string

var domainUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a domain document with YAML from a file or stdin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc := readDocument(domainPutFile)

		svc := openWorld(cmd)
		defer svc.Close()

		if _, err := svc.UpdateDomain(context.Background(), args[0], doc); err != nil {
			fatal("Failed to update domain", err)
		}
		fmt.Printf("Domain '%s' updated.\n", args[0])
	},
}

var domainDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Unregister a domain and remove its document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		if err := svc.DeleteDomain(context.Background(), args[0]); err != nil {
			fatal("Failed to delete domain", err)
		}
		fmt.Printf("Domain '%s' deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(domainCmd)
	domainCmd.AddCommand(domainListCmd, domainGetCmd, domainCreateCmd, domainUpdateCmd, domainDeleteCmd)

	domainListCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	domainGetCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	domainCreateCmd.Flags().StringVar(&domainInput.Name, "name", "", "Display name (defaults to the id)")
	domainCreateCmd.Flags().StringVar(&domainInput.Description, "description", "", "Short description")
	domainUpdateCmd.Flags().StringVarP(&domainPutFile, "file", "f", "-", "YAML file to read (- for stdin)")
}
