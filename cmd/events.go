package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/records"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List approved events matching the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := loadRecords(cmd, records.KindEvent)
		if err != nil {
			return err
		}
		c, err := criteriaFromFlags(cmd)
		if err != nil {
			return err
		}

		matched := filter.Apply(records.Approved(recs), c, time.Now())
		records.SortByAnchorDesc(matched)
		printRecords(cmd, matched)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	addFilterFlags(eventsCmd)
}
