package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"capplane/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history [capacity_id]",
	Short: "Show the transition history of a capacity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		capacityID := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}
		endpoint := fmt.Sprintf("%s/capacities/%s/history?limit=%d", url, capacityID, limit)
		resp, err := client.Get(endpoint)
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
		var result api.CapacityHistoryResponse
		if err := json.Unmarshal(body, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}

		if len(result.Transitions) == 0 {
			cmd.Printf("No transitions recorded for %s\n", capacityID)
			return
		}

		cmd.Printf("%-25s %-16s %-16s %s\n", "AT", "FROM", "TO", "CAUSE")
		for _, tr := range result.Transitions {
			cmd.Printf("%-25s %-16s %-16s %s\n",
				tr.At.Format(time.RFC3339), tr.FromState, tr.ToState, tr.Cause)
		}
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of transitions to show")
	rootCmd.AddCommand(historyCmd)
}
