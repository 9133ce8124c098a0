package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"capplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var assignCmd = &cobra.Command{
	Use:   "assign [workspace_id] [capacity_id]",
	Short: "Move a workspace onto another capacity",
	Long: `Reassign a workspace to a capacity. The previous assignment is
overwritten and reported back, never silently replaced.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		workspaceID, capacityID := args[0], args[1]

		payload, err := json.Marshal(api.AssignWorkspaceRequest{CapacityID: capacityID})
		if err != nil {
			cmd.Printf("Failed to marshal request: %v\n", err)
			return
		}

		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}
		endpoint := fmt.Sprintf("%s/workspaces/%s/assign", url, workspaceID)
		resp, err := client.Post(endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			cmd.Printf("Failed to send request: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			cmd.Printf("Request failed with status code: %d\n", resp.StatusCode)
			return
		}

		body, _ := io.ReadAll(resp.Body)
		var result api.AssignWorkspaceResponse
		if err := json.Unmarshal(body, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}
		if result.OldCapacity != "" && result.OldCapacity != result.NewCapacity {
			cmd.Printf("%s✓%s Workspace %s moved from %s to %s\n",
				colorGreen, colorReset, result.WorkspaceID, result.OldCapacity, result.NewCapacity)
		} else {
			cmd.Printf("%s✓%s Workspace %s assigned to %s\n",
				colorGreen, colorReset, result.WorkspaceID, result.NewCapacity)
		}
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)
}
