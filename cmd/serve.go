package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stadtimpuls/kompass/internal/server"
	"github.com/stadtimpuls/kompass/internal/utils"
	"github.com/stadtimpuls/kompass/pkg/directus"
	"github.com/stadtimpuls/kompass/pkg/engine"
	"github.com/stadtimpuls/kompass/pkg/records"
	"github.com/stadtimpuls/kompass/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filtered collections as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		client, err := directusClient()
		if err != nil {
			return err
		}

		events := newEngine(client, records.KindEvent)
		funding := newEngine(client, records.KindFunding)

		// Seed from the cache when available so the API is usable before the
		// first refresh completes.
		seedFromCache(events, records.KindEvent)
		seedFromCache(funding, records.KindFunding)

		ctx := context.Background()
		events.Refresh(ctx)
		funding.Refresh(ctx)

		pollHours := viper.GetInt("server.poll_hours")
		if pollHours > 0 {
			go func() {
				ticker := time.NewTicker(time.Duration(pollHours) * time.Hour)
				defer ticker.Stop()
				for range ticker.C {
					events.Refresh(ctx)
					funding.Refresh(ctx)
				}
			}()
		}

		utils.Log.Infof("Starting server on %s", addr)
		srv := server.New(events, funding,
			viper.GetString("server.username"), viper.GetString("server.password"))
		return srv.Start(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8087", "Listen address")
}

func newEngine(client *directus.Client, kind records.Kind) *engine.Engine {
	return engine.New(engine.Config{
		Collection: directus.CollectionFor(kind),
		Log:        utils.Log,
		Fetch: func(ctx context.Context) ([]records.Record, error) {
			return client.FetchApproved(ctx, kind)
		},
	})
}

func seedFromCache(eng *engine.Engine, kind records.Kind) {
	db, err := storage.Open(viper.GetString("cache.path"))
	if err != nil {
		utils.Log.Warnf("Cache unavailable: %v", err)
		return
	}
	defer db.Close()

	recs, _, err := db.LoadSnapshot(context.Background(), directus.CollectionFor(kind))
	if err != nil {
		if !errors.Is(err, storage.ErrNoSnapshot) {
			utils.Log.Warnf("Could not load %s snapshot: %v", directus.CollectionFor(kind), err)
		}
		return
	}
	eng.SetRecords(recs)
}
