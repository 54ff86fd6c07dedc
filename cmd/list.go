package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stadtimpuls/kompass/pkg/directus"
	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
	"github.com/stadtimpuls/kompass/pkg/storage"
)

// addFilterFlags registers the filter criteria flags shared by the listing
// commands.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("tag", "t", nil, "Require a tag (repeatable; all given tags must match)")
	cmd.Flags().String("horizon", "all", "Time horizon: all, today, thisWeek, nextWeek, thisMonth, nextMonth, next3Months, next6Months, ongoing, upcoming")
	cmd.Flags().String("search", "", "Free-text search over title and description")
	cmd.Flags().String("source", "", "Only records from this source")
	cmd.Flags().Bool("remote", false, "Fetch from the remote store instead of the local cache")
}

// addFundingFlags registers the funding-only criteria flags.
func addFundingFlags(cmd *cobra.Command) {
	cmd.Flags().String("region", "", "Only programs for this region")
	cmd.Flags().String("funding-type", "", "Only programs with this funding type")
	cmd.Flags().String("provider-type", "", "Only programs from this provider type")
	cmd.Flags().String("provider", "", "Only programs from this provider")
	cmd.Flags().String("amount", "", "Amount band: small, medium, large, xlarge")
}

// criteriaFromFlags builds the filter state from a listing command's flags.
func criteriaFromFlags(cmd *cobra.Command) (filter.Criteria, error) {
	c := filter.Criteria{}
	c.Tags, _ = cmd.Flags().GetStringArray("tag")
	c.Search, _ = cmd.Flags().GetString("search")
	c.Source, _ = cmd.Flags().GetString("source")

	rawHorizon, _ := cmd.Flags().GetString("horizon")
	tok, ok := horizon.ParseToken(rawHorizon)
	if !ok {
		return c, fmt.Errorf("invalid horizon %q", rawHorizon)
	}
	c.Horizon = tok

	if f := cmd.Flags().Lookup("region"); f != nil {
		c.Region = f.Value.String()
	}
	if f := cmd.Flags().Lookup("funding-type"); f != nil {
		c.FundingType = f.Value.String()
	}
	if f := cmd.Flags().Lookup("provider-type"); f != nil {
		c.ProviderType = f.Value.String()
	}
	if f := cmd.Flags().Lookup("provider"); f != nil {
		c.Provider = f.Value.String()
	}
	if f := cmd.Flags().Lookup("amount"); f != nil && f.Value.String() != "" {
		band, ok := filter.ParseAmountBand(f.Value.String())
		if !ok {
			return c, fmt.Errorf("invalid amount band %q", f.Value.String())
		}
		c.Amount = band
	}
	return c, nil
}

// loadRecords returns a collection's records, either from the sqlite snapshot
// cache or, with --remote, freshly fetched from the record store.
func loadRecords(cmd *cobra.Command, kind records.Kind) ([]records.Record, error) {
	remote, _ := cmd.Flags().GetBool("remote")
	if remote {
		client, err := directusClient()
		if err != nil {
			return nil, err
		}
		return client.FetchApproved(context.Background(), kind)
	}

	db, err := storage.Open(viper.GetString("cache.path"))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	recs, fetchedAt, err := db.LoadSnapshot(context.Background(), directus.CollectionFor(kind))
	if errors.Is(err, storage.ErrNoSnapshot) {
		return nil, fmt.Errorf("no local snapshot for %s: run 'kompass fetch' or pass --remote", directus.CollectionFor(kind))
	}
	if err != nil {
		return nil, err
	}
	if age := time.Since(fetchedAt); age > 24*time.Hour {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: snapshot is %s old, consider 'kompass fetch'\n", age.Round(time.Hour))
	}
	return recs, nil
}

func directusClient() (*directus.Client, error) {
	baseURL := viper.GetString("directus.url")
	if baseURL == "" {
		return nil, errors.New("directus.url is not configured (see ~/.kompass.yaml)")
	}
	return directus.New(baseURL, viper.GetString("directus.token")), nil
}

// printRecords writes one line per record: date, title, tags.
func printRecords(cmd *cobra.Command, recs []records.Record) {
	for i := range recs {
		r := &recs[i]
		date := "          "
		if a := r.AnchorDate(); a != nil {
			date = a.Format("2006-01-02")
		} else if r.IsOngoing() {
			date = "ongoing   "
		}
		line := date + "\t" + r.Title
		if tags := r.FlatTags(); len(tags) > 0 {
			line += "\t" + strings.Join(tags, ",")
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
