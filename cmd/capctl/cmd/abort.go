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

var abortCmd = &cobra.Command{
	Use:   "abort [capacity_id]",
	Short: "Abort the in-flight pipeline run of a capacity",
	Long: `Cancel the pipeline run currently executing on a capacity, if any.
The capacity still deactivates afterwards; an aborted run never leaves
compute burning.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		capacityID := args[0]

		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}
		endpoint := fmt.Sprintf("%s/capacities/%s/abort", url, capacityID)
		resp, err := client.Post(endpoint, "application/json", nil)
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
		var result api.AbortResponse
		if err := json.Unmarshal(body, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}
		if result.Aborted {
			cmd.Printf("%s✓%s Run aborted on %s\n", colorGreen, colorReset, capacityID)
		} else {
			cmd.Printf("No run in flight on %s\n", capacityID)
		}
	},
}

func init() {
	rootCmd.AddCommand(abortCmd)
}
