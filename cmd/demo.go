package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencourier/driverd/internal/factories"
	"github.com/opencourier/driverd/internal/normalize"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate raw order payloads and print their normalized form",
	Run: func(cmd *cobra.Command, args []string) {
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetInt64("seed")
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		factory := &factories.RawOrderFactory{Rng: rand.New(rand.NewSource(seed))}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		for i := 0; i < count; i++ {
			raw := factory.CreateRawOrder()
			fmt.Printf("--- raw #%d ---\n", i+1)
			enc.Encode(raw)
			fmt.Println("--- normalized ---")
			enc.Encode(normalize.Order(raw))
		}
	},
}

func init() {
	demoCmd.Flags().Int("count", 3, "Number of payloads to generate")
	demoCmd.Flags().Int64("seed", 0, "Random seed (0 picks one)")
	rootCmd.AddCommand(demoCmd)
}
