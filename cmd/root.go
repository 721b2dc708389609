package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencourier/driverd/internal/agent"
	"github.com/opencourier/driverd/internal/api"
	"github.com/opencourier/driverd/internal/auth"
	"github.com/opencourier/driverd/internal/lifecycle"
	"github.com/opencourier/driverd/internal/locqueue"
	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/realtime"
	"github.com/opencourier/driverd/internal/state"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "driverd",
	Short: "Headless delivery-driver agent",
	Long: `driverd is the driver-side agent for the delivery platform: it keeps the
driver online, polls and accepts orders, walks the delivery status flow and
relays live location over REST and the realtime channel, queueing pings
durably while the network is down.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		runAgent(cfg)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/config.json)")

	rootCmd.Flags().String("api-base-url", "", "Backend API base URL")
	rootCmd.Flags().String("socket-url", "", "Realtime websocket URL")
	rootCmd.Flags().Duration("location-interval", 3*time.Second, "Location reporting interval")
	rootCmd.Flags().Duration("poll-interval", 10*time.Second, "Pending order poll interval")
	rootCmd.Flags().String("queue-backend", "file", "Location queue backend (file or redis)")
	rootCmd.Flags().String("telemetry-output", "console", "Telemetry destination (console, file, kafka or postgres)")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")

	// flags stay kebab-case on the command line but feed the snake_case
	// config keys
	for flag, key := range map[string]string{
		"api-base-url":      "api_base_url",
		"socket-url":        "socket_url",
		"location-interval": "location_interval",
		"poll-interval":     "poll_interval",
		"queue-backend":     "queue_backend",
		"telemetry-output":  "telemetry_output",
		"kafka-broker-list": "kafka_broker_list",
	} {
		viper.BindPFlag(key, rootCmd.Flags().Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.AutomaticEnv()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAgent(cfg *models.Config) {
	client := api.New(cfg.APIBaseURL, cfg.APITimeout)
	store := state.NewStore(dataDir(cfg))
	authSvc := auth.NewService(client, store)

	driver, ok := authSvc.Bootstrap()
	if !ok || driver == nil {
		fmt.Fprintln(os.Stderr, "No session found. Run 'driverd login' first.")
		os.Exit(1)
	}

	persisted, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read persisted session: %v\n", err)
	}

	orders := lifecycle.NewManager(client)
	orders.Restore(persisted.Orders)

	rec, recClose := buildTelemetry(cfg, driver.ID)
	defer recClose()

	var socket *realtime.Client
	if cfg.SocketURL != "" {
		socket = realtime.New(cfg.SocketURL)
	}

	a := agent.New(agent.Options{
		Config: cfg,
		Client: client,
		Orders: orders,
		Queue:  buildQueue(cfg),
		Socket: socket,
		Store:  store,
		Rec:    rec,
		Source: buildSource(cfg),
		Driver: *driver,
		Token:  persisted.Token,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Agent failed: %v\n", err)
		os.Exit(1)
	}
}

func dataDir(cfg *models.Config) string {
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".driverd"
	}
	return filepath.Join(home, ".driverd")
}

func buildQueue(cfg *models.Config) *locqueue.Queue {
	if cfg.QueueBackend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return locqueue.New(locqueue.NewRedisStore(client, cfg.RedisKey))
	}
	path := cfg.QueuePath
	if path == "" {
		path = filepath.Join(dataDir(cfg), "location_queue.json")
	}
	return locqueue.New(locqueue.NewFileStore(path))
}

func buildSource(cfg *models.Config) agent.LocationSource {
	start := models.Location{Lat: cfg.StartLat, Lng: cfg.StartLng}
	if cfg.LocationSource == "fixed" {
		return agent.NewFixedSource(start)
	}
	return agent.NewWalkSource(start, cfg.WalkStepKm, time.Now().UnixNano())
}
