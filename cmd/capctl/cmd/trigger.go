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

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Fire trigger events against the orchestrator",
}

var triggerCICmd = &cobra.Command{
	Use:   "ci",
	Short: "Fire a CI merge trigger",
	Long: `Send a CI merge notification to the orchestrator, as the CI system
would after a change lands. Only status "merged" on a mapped branch
activates a capacity; anything else is dropped with a report.`,
	Run: func(cmd *cobra.Command, args []string) {
		branch, _ := cmd.Flags().GetString("branch")
		status, _ := cmd.Flags().GetString("status")
		if branch == "" {
			cmd.Println("--branch is required")
			return
		}

		payload, err := json.Marshal(api.TriggerCIRequest{Branch: branch, Status: status})
		if err != nil {
			cmd.Printf("Failed to marshal request: %v\n", err)
			return
		}

		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Post(fmt.Sprintf("%s/triggers/ci", url), "application/json", bytes.NewReader(payload))
		if err != nil {
			cmd.Printf("Failed to send request: %v\n", err)
			return
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnprocessableEntity {
			var errResp api.ErrorResponse
			if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
				cmd.Printf("Trigger dropped: %s\n", errResp.Error)
				return
			}
			cmd.Println("Trigger dropped")
			return
		}
		if resp.StatusCode != http.StatusAccepted {
			cmd.Printf("Request failed with status code: %d\n", resp.StatusCode)
			return
		}

		var result api.TriggerResponse
		if err := json.Unmarshal(body, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}
		cmd.Printf("%s✓%s Trigger %s accepted for capacity %s\n",
			colorGreen, colorReset, result.TriggerID, result.CapacityID)
	},
}

func init() {
	triggerCICmd.Flags().String("branch", "", "branch the change was merged into")
	triggerCICmd.Flags().String("status", "merged", "CI status of the change")

	triggerCmd.AddCommand(triggerCICmd)
	rootCmd.AddCommand(triggerCmd)
}
