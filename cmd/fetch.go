package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stadtimpuls/kompass/internal/utils"
	"github.com/stadtimpuls/kompass/pkg/directus"
	"github.com/stadtimpuls/kompass/pkg/records"
	"github.com/stadtimpuls/kompass/pkg/storage"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch both collections from the record store into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := directusClient()
		if err != nil {
			return err
		}

		cachePath := viper.GetString("cache.path")
		lock, err := utils.NewCacheLock(cachePath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := storage.Open(cachePath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		for _, kind := range []records.Kind{records.KindEvent, records.KindFunding} {
			collection := directus.CollectionFor(kind)
			recs, err := client.FetchApproved(ctx, kind)
			if err != nil {
				return err
			}
			if err := db.SaveSnapshot(ctx, collection, time.Now(), recs); err != nil {
				return err
			}
			utils.Log.Infof("Cached %d %s records", len(recs), collection)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
