package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/canon/internal/platform"
	worldsource "github.com/aretw0/canon/pkg/adapters/lifecycle"
)

var (
	watchPattern  string
	watchCoalesce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the world documents",
	Long: `Stream create, modify and delete events for live documents matching a
doublestar pattern. Only the fs adapter can be watched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := openWorld(cmd, platform.WithWatcherErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}))
		defer svc.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx, watchPattern)
		if err != nil {
			return err
		}

		source := worldsource.NewSource(events, worldsource.WithCoalesce(watchCoalesce))
		if err := source.Start(ctx); err != nil {
			return err
		}
		for e := range source.Events() {
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchPattern, "pattern", "p", "**/*.yaml", "Doublestar pattern of paths to watch")
	watchCmd.Flags().DurationVar(&watchCoalesce, "coalesce", 100*time.Millisecond, "Merge bursts of events per path within this window (0 disables)")
}
