package main

import (
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/canon/pkg/world"
)

var statusDiagram bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the service and storage state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openWorld(cmd)
		defer svc.Close()

		state, _ := svc.State().(world.ServiceState)
		if statusDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "world"
			config.SecondaryLabel = "World Topology"
			fmt.Println(introspection.TreeDiagram(buildWorldTree(worldURI(cmd), state), config))
			return
		}

		printJSON(map[string]any{
			"root":      worldURI(cmd),
			"component": svc.ComponentType(),
			"service":   state,
			"storage":   storageState(svc.Storage()),
		})
	},
}

func storageState(storage any) any {
	if intro, ok := storage.(introspection.Introspectable); ok {
		return intro.State()
	}
	return nil
}

type worldNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []worldNode
}

// buildWorldTree maps the service state onto the node shape TreeDiagram renders.
// Status values must be classes known to introspection.DefaultStyles().
func buildWorldTree(root string, state world.ServiceState) worldNode {
	archive := worldNode{
		Name:   "Snapshots",
		Status: "running",
		Metadata: map[string]string{
			"type":     "container",
			"storage":  state.SnapshotStorageType,
			"created":  fmt.Sprintf("%d", state.SnapshotsCreated),
			"restored": fmt.Sprintf("%d", state.SnapshotsRestored),
		},
	}
	if state.SnapshotsCreated == 0 && state.SnapshotsRestored == 0 {
		archive.Status = "suspended"
	}

	return worldNode{
		Name:   "World",
		Status: "running",
		Metadata: map[string]string{
			"type": "container",
			"root": root,
		},
		Children: []worldNode{
			{
				Name:   "Documents",
				Status: "running",
				Metadata: map[string]string{
					"type":    "process",
					"storage": state.StorageType,
					"workers": fmt.Sprintf("%d", state.CaptureConcurrency),
				},
			},
			archive,
		},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Print a Mermaid diagram instead of JSON")
}
