package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stadtimpuls/kompass/internal/utils"
	"github.com/stadtimpuls/kompass/pkg/records"
)

var approveCmd = &cobra.Command{
	Use:   "approve [events|funding] <id>",
	Short: "Mark a record as approved (or revoke with --revoke)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind records.Kind
		switch args[0] {
		case "events":
			kind = records.KindEvent
		case "funding":
			kind = records.KindFunding
		default:
			return fmt.Errorf("unknown collection %q", args[0])
		}

		client, err := directusClient()
		if err != nil {
			return err
		}

		revoke, _ := cmd.Flags().GetBool("revoke")
		fields := map[string]interface{}{"approved": !revoke}
		if err := client.UpdateItem(context.Background(), kind, args[1], fields); err != nil {
			return err
		}
		utils.Log.Infof("Set approved=%v on %s/%s", !revoke, args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().Bool("revoke", false, "Revoke approval instead of granting it")
}
