package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/pkg/world"
)

var (
	questionInput   world.QuestionInput
	questionPutFile string
)

var questionCmd = &cobra.Command{
	Use:     "question",
	Aliases: []string{"oq"},
	Short:   "Manage the open-questions ledger",
}

var questionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open questions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		questions, err := svc.ListQuestions(context.Background())
		if err != nil {
			fatal("Failed to list questions", err)
		}
		if outputJSON {
			printJSON(questions)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tDOMAIN\tNAME")
		for _, q := range questions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.String("id"), q.String("status"), q.String("domain"), q.String("name"))
		}
		w.Flush()
	},
}

var questionGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a question",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		q, err := svc.GetQuestion(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read question", err)
		}
		printDocument(q)
	},
}

var questionCreateCmd = &cobra.Command{
	Use:   "create <question>",
	Short: "Open a new question",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		in := questionInput
		in.Question = args[0]
		if in.Name == "" {
			in.Name = args[0]
		}
		q, err := svc.CreateQuestion(context.Background(), in)
		if err != nil {
			fatal("Failed to create question", err)
		}
		fmt.Printf("Question '%s' created.\n", q.String("id"))
	},
}

var questionUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a question with YAML from a file or stdin",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := readDocument(questionPutFile)

		svc := openWorld(cmd)
		defer svc.Close()

		if _, err := svc.UpdateQuestion(context.Background(), args[0], body); err != nil {
			fatal("Failed to update question", err)
		}
		fmt.Printf("Question '%s' updated.\n", args[0])
	},
}

var questionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a question from the ledger",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		if err := svc.DeleteQuestion(context.Background(), args[0]); err != nil {
			fatal("Failed to delete question", err)
		}
		fmt.Printf("Question '%s' deleted.\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(questionCmd)
	questionCmd.AddCommand(questionListCmd, questionGetCmd, questionCreateCmd, questionUpdateCmd, questionDeleteCmd)

	questionListCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	questionGetCmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	questionCreateCmd.Flags().StringVar(&questionInput.Name, "name", "", "Short title (defaults to the question)")
	questionCreateCmd.Flags().StringVar(&questionInput.Domain, "domain", "", "Domain the question belongs to")
	questionCreateCmd.Flags().StringVar(&questionInput.Notes, "notes", "", "Free-form notes")
	questionUpdateCmd.Flags().StringVarP(&questionPutFile, "file", "f", "-", "YAML file to read (- for stdin)")
}
