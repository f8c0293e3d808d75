package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the pending transactions into a new block",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/v1/mine", nil)
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Show the full chain held by the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/chain", nil)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the pending transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/tx/pending", nil)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd, chainCmd, pendingCmd)
}
