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

var capacitiesCmd = &cobra.Command{
	Use:   "capacities [capacity_id]",
	Short: "List capacities or show one capacity in detail",
	Long: `Without an argument, lists every registered capacity with its
environment, workload class, automation policy and live lifecycle state.
With a capacity id, shows that capacity in detail.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		client := &http.Client{Timeout: 5 * time.Second}

		if len(args) == 1 {
			showCapacity(cmd, client, url, args[0])
			return
		}
		listCapacities(cmd, client, url)
	},
}

func listCapacities(cmd *cobra.Command, client *http.Client, url string) {
	resp, err := client.Get(fmt.Sprintf("%s/capacities", url))
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
	var list api.ListCapacitiesResponse
	if err := json.Unmarshal(body, &list); err != nil {
		cmd.Printf("Failed to parse response: %v\n", err)
		return
	}

	if len(list.Capacities) == 0 {
		cmd.Println("No capacities registered")
		return
	}

	cmd.Printf("%-28s %-6s %-12s %-10s %s\n", "ID", "ENV", "CLASS", "POLICY", "STATE")
	for _, c := range list.Capacities {
		cmd.Printf("%-28s %-6s %-12s %-10s %s\n",
			c.ID, c.Environment, c.Class, c.Policy, colorizeState(c.State))
	}
}

func showCapacity(cmd *cobra.Command, client *http.Client, url, id string) {
	resp, err := client.Get(fmt.Sprintf("%s/capacities/%s", url, id))
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
	var c api.CapacityResponse
	if err := json.Unmarshal(body, &c); err != nil {
		cmd.Printf("Failed to parse response: %v\n", err)
		return
	}

	cmd.Printf("%sCapacity Details%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, c.ID)
	cmd.Printf("%sEnvironment:%s %s\n", colorDim, colorReset, c.Environment)
	cmd.Printf("%sClass:%s       %s\n", colorDim, colorReset, c.Class)
	cmd.Printf("%sPolicy:%s      %s\n", colorDim, colorReset, c.Policy)
	if c.Schedule != "" {
		cmd.Printf("%sSchedule:%s    %s\n", colorDim, colorReset, c.Schedule)
	}
	cmd.Printf("%sState:%s       %s\n", colorDim, colorReset, colorizeState(c.State))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func colorizeState(state string) string {
	switch state {
	case "Paused":
		return colorDim + state + colorReset
	case "Activating", "Deactivating":
		return colorYellow + state + colorReset
	case "ActiveIdle":
		return colorCyan + state + colorReset
	case "RunningPipeline":
		return colorGreen + state + colorReset
	default:
		return state
	}
}

func init() {
	rootCmd.AddCommand(capacitiesCmd)
}
