package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"capplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var actionCmd = &cobra.Command{
	Use:   "action [capacity_id] [activate|deactivate]",
	Short: "Record a manual operator action on a capacity",
	Long: `Record an operator-driven activation or deactivation. This is the
only way a Manual-policy capacity changes state; the orchestrator never
automates those.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		capacityID, action := args[0], args[1]
		if action != "activate" && action != "deactivate" {
			cmd.Println("Action must be activate or deactivate")
			return
		}

		payload, err := json.Marshal(api.ManualActionRequest{Action: action})
		if err != nil {
			cmd.Printf("Failed to marshal request: %v\n", err)
			return
		}

		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}
		endpoint := fmt.Sprintf("%s/capacities/%s/actions", url, capacityID)
		resp, err := client.Post(endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			cmd.Printf("Failed to send request: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted {
			cmd.Printf("Request failed with status code: %d\n", resp.StatusCode)
			return
		}
		cmd.Printf("%s✓%s Recorded %s for %s\n", colorGreen, colorReset, action, capacityID)
	},
}

func init() {
	rootCmd.AddCommand(actionCmd)
}
