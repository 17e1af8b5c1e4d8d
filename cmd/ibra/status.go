package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newStatusCmd queries a running agent's health endpoint and prints the raw
// JSON payload.
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running agent's health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			listen := strings.TrimSpace(viper.GetString("healthcheck.listen"))
			if listen == "" {
				return fmt.Errorf("healthcheck.listen is not configured")
			}
			url := fmt.Sprintf("http://%s/healthz", listen)

			client := &http.Client{Timeout: 5 * time.Second}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("query %s: %w", url, err)
			}
			raw, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("health endpoint http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(raw)))
			return nil
		},
	}
	return cmd
}
