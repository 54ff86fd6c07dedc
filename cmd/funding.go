package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
)

var fundingCmd = &cobra.Command{
	Use:   "funding",
	Short: "List approved funding programs matching the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := loadRecords(cmd, records.KindFunding)
		if err != nil {
			return err
		}
		c, err := criteriaFromFlags(cmd)
		if err != nil {
			return err
		}

		now := time.Now()
		matched := filter.Apply(records.Approved(recs), c, now)
		records.SortByAnchorDesc(matched)

		showTier, _ := cmd.Flags().GetBool("tier")
		for i := range matched {
			r := &matched[i]
			if showTier {
				cmd.Printf("[%s]\t", horizon.Classify(r, now))
			}
			printRecords(cmd, matched[i:i+1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fundingCmd)
	addFilterFlags(fundingCmd)
	addFundingFlags(fundingCmd)
	fundingCmd.Flags().Bool("tier", false, "Prefix each program with its deadline urgency tier")
}
