package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/stadtimpuls/kompass/pkg/facets"
	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/records"
)

var facetsCmd = &cobra.Command{
	Use:   "facets [events|funding]",
	Short: "Print tag facet summaries for a collection",
	Args:  cobra.ExactArgs(1),
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

		recs, err := loadRecords(cmd, kind)
		if err != nil {
			return err
		}
		c, err := criteriaFromFlags(cmd)
		if err != nil {
			return err
		}

		// Facets come from the candidate set before tag narrowing.
		c.Tags = nil
		candidates := filter.Apply(records.Approved(recs), c, time.Now())
		f := facets.Compute(candidates)

		cmd.Printf("%d candidates, cutoff %d\n\n", f.Candidates, f.Cutoff)

		if len(f.Super) > 0 {
			cmd.Println("categories:")
			for _, tc := range f.Super {
				cmd.Printf("  %4d  %s\n", tc.Count, tc.Tag)
			}
			cmd.Println()
		}

		groups := make([]string, 0, len(f.Groups))
		for g := range f.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			cmd.Printf("%s:\n", g)
			for _, tc := range f.Groups[g] {
				cmd.Printf("  %4d  %s\n", tc.Count, tc.Tag)
			}
			cmd.Println()
		}

		cmd.Println("top tags:")
		for _, tc := range f.Top {
			cmd.Printf("  %4d  %s\n", tc.Count, tc.Tag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(facetsCmd)
	addFilterFlags(facetsCmd)
	addFundingFlags(facetsCmd)
}
