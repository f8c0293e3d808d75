package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register address...",
	Short: "Register peer nodes, e.g. http://192.168.0.5:9080",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes := struct {
			Nodes []string `json:"nodes"`
		}{
			Nodes: args,
		}

		return call(cmd, http.MethodPost, "/v1/nodes/register", nodes)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Replace the node's chain with the longest valid peer chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/nodes/resolve", nil)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd, resolveCmd)
}
