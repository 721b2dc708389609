package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/auth"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/state"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drain queued location pings to the backend",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		client := api.New(cfg.APIBaseURL, cfg.APITimeout)
		store := state.NewStore(dataDir(cfg))
		if _, ok := auth.NewService(client, store).Bootstrap(); !ok {
			fmt.Fprintln(os.Stderr, "No session found. Run 'driverd login' first.")
			os.Exit(1)
		}

		queue := buildQueue(cfg)
		ctx := context.Background()

		entries, err := queue.Entries(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read queue: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("Queue is empty")
			return
		}

		bar := progressbar.Default(int64(len(entries)), "Flushing queued pings")
		res, err := queue.Flush(ctx, func(ctx context.Context, lat, lng float64) error {
			err := client.UpdateLocation(ctx, lat, lng)
			bar.Add(1)
			return err
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Flush aborted: %v\n", err)
			os.Exit(1)
		}
		bar.Finish()
		fmt.Printf("Flushed %d pings, %d still queued\n", res.Flushed, len(res.Remaining))
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}
