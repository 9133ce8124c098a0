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

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the inventory declaration document",
	Long: `Ask the orchestrator to re-read its inventory document and reconcile
controllers and schedules against the new topology. Malformed records
are skipped and listed in the output.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Post(fmt.Sprintf("%s/inventory/reload", url), "application/json", nil)
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
		var result api.ReloadResponse
		if err := json.Unmarshal(body, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Inventory reloaded: %d capacities, %d workspaces\n",
			colorGreen, colorReset, result.Capacities, result.Workspaces)
		for _, skipped := range result.Skipped {
			cmd.Printf("  %s!%s skipped: %s\n", colorYellow, colorReset, skipped)
		}
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
