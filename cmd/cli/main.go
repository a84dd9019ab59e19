package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiBase   string
	checkType string
)

var client = &http.Client{Timeout: 2 * time.Minute}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sysmon-cli",
		Short:        "Talk to a running sysmon service",
		SilenceUsage: true,
	}
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&apiBase, "api", def, "service base URL (API_BASE)")
	root.AddCommand(checkCmd(), statusCmd())
	return root
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [target]",
		Short: "Probe systems now and wait for the results",
		Long: `Probe one system, a group or everything right away.

Examples:
  sysmon-cli check web
  sysmon-cli check --type group frontend
  sysmon-cli check --type all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			if target == "" && checkType != "all" {
				return fmt.Errorf("a target is required for --type %s", checkType)
			}

			q := url.Values{"target": {target}, "type": {checkType}}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				strings.TrimRight(apiBase, "/")+"/check/now?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("contacting API: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API returned status: %s", resp.Status)
			}

			var out struct {
				Dispatched int `json:"dispatched"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			if out.Dispatched == 0 {
				fmt.Println("Nothing matched; no probes ran.")
				return nil
			}
			fmt.Printf("✓ Probed %d system(s). Run `sysmon-cli status` to see the results.\n", out.Dispatched)
			return nil
		},
	}
	cmd.Flags().StringVarP(&checkType, "type", "t", "single", "selection: single, group or all")
	return cmd
}

type statusRow struct {
	ID        string     `json:"id"`
	Host      string     `json:"host"`
	Group     string     `json:"group"`
	Status    string     `json:"status"`
	LastCheck *time.Time `json:"last_check"`
	LatencyMS float64    `json:"latency"`
	Message   string     `json:"message"`
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every system, worst health first",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
				strings.TrimRight(apiBase, "/")+"/api/status", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("contacting API: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API returned status: %s", resp.Status)
			}

			var rows []statusRow
			if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println("No systems configured yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tID\tHOST\tGROUP\tLATENCY\tLAST CHECK\tMESSAGE")
			for _, r := range rows {
				last := "never"
				if r.LastCheck != nil {
					last = r.LastCheck.Local().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fms\t%s\t%s\n",
					r.Status, r.ID, r.Host, r.Group, r.LatencyMS, last, r.Message)
			}
			return w.Flush()
		},
	}
}
