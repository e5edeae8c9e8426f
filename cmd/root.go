package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go.sirus.dev/p2p-comm/chatrooms/pkg/audit"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/blob"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/connector"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/docstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/events"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/graphstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/lifecycle"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/permission"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/quota"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/relstore"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/retention"
	"go.sirus.dev/p2p-comm/chatrooms/pkg/room"
)

// openStore connects to the configured backend and returns the
// matching storage port implementation
func openStore(ctx context.Context, conf *Config, logger *zap.SugaredLogger) (room.Store, error) {
	switch conf.Backend {
	case "postgres":
		db, err := connector.ConnectToPostgres(conf.Postgres, relstore.Models)
		if err != nil {
			return nil, err
		}
		return relstore.New(db, logger), nil
	case "mongo":
		db, err := connector.ConnectToMongo(ctx, conf.Mongo)
		if err != nil {
			return nil, err
		}
		err = docstore.EnsureIndexes(ctx, db)
		if err != nil {
			return nil, err
		}
		return docstore.New(db, logger), nil
	case "neo4j":
		driver, err := connector.ConnectToNeo4j(ctx, conf.Neo4j)
		if err != nil {
			return nil, err
		}
		err = graphstore.EnsureConstraints(ctx, driver, "")
		if err != nil {
			return nil, err
		}
		return graphstore.New(driver, "", logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", conf.Backend)
}

var rootCmd = &cobra.Command{
	Use:   "chatrooms",
	Short: "chat room resource lifecycle service",
	Run: func(cmd *cobra.Command, args []string) {
		// initiate config
		var err error
		conf, err := LoadConfig()
		if err != nil {
			log.Fatalf("Error loading configurations %v", err)
		}

		// setup logger
		logger, err := connector.CreateLogger(conf.LogLevel)
		if err != nil {
			log.Fatalf("Error setup logger %v", err)
		}
		logger.Info("logger setup finish")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// connect to storage backend
		store, err := openStore(ctx, conf, logger)
		if err != nil {
			logger.Fatalf("failed to open %s backend -> %v", conf.Backend, err)
		}
		logger.Infof("%s backend connected", conf.Backend)

		// connect to blob storage
		blobs, err := blob.NewS3Store(ctx, conf.S3Bucket, logger)
		if err != nil {
			logger.Fatalf("failed to open s3 bucket -> %v", err)
		}
		logger.Info("blob storage ready")

		// connect to nats
		logger.Debug("connect to nats")
		nc, err := nats.Connect(conf.NatsURL)
		if err != nil {
			logger.Fatalf("failed to connect to nats -> %v", err)
		}
		logger.Debug("encode nats connecting")
		natsConn, err := nats.NewEncodedConn(nc, nats.JSON_ENCODER)
		if err != nil {
			logger.Fatalf("failed to encode nats connection -> %v", err)
		}
		logger.Info("nats connected")

		// instantiate the lifecycle engine and its collaborators
		perms := permission.NewAPI(store, logger)
		quotas := quota.NewAPI(store, *conf.Quota, logger)
		recorder := audit.NewRecorder(store, logger)
		engine := lifecycle.NewAPI(
			store, blobs, perms, quotas, recorder,
			logger, conf.InviteSecret,
		)

		// publish lifecycle events
		relay := events.NewRelay(natsConn, conf.EventNamespace, logger)
		relay.Wire(ctx, engine)

		// schedule the retention sweeper
		sweeper := retention.NewSweeper(
			store, blobs, recorder,
			conf.Quota.RetentionDays, conf.SweepPageSize, logger,
		)
		scheduler := cron.New()
		err = sweeper.Schedule(scheduler, conf.SweepSchedule)
		if err != nil {
			logger.Fatalf("failed to schedule retention sweep -> %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Infof("retention sweep scheduled at %q", conf.SweepSchedule)

		// keep it running
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
	},
}

func init() {
	rootCmd.Version = Version
}

// Execute root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
