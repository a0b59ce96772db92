package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/driftlands/worldsim/internal/clients/oracle"
	"github.com/driftlands/worldsim/internal/engine/economy"
	"github.com/driftlands/worldsim/internal/engine/jobs"
	"github.com/driftlands/worldsim/internal/engine/policy"
	"github.com/driftlands/worldsim/internal/engine/schedule"
	"github.com/driftlands/worldsim/internal/errors"
	"github.com/driftlands/worldsim/internal/orchestrators/action"
	"github.com/driftlands/worldsim/internal/orchestrators/tick"
	"github.com/driftlands/worldsim/internal/pkg/clock"
	"github.com/driftlands/worldsim/internal/pkg/idgen"
	redisclient "github.com/driftlands/worldsim/internal/redis"
	"github.com/driftlands/worldsim/internal/repositories/snapshot"
	"github.com/driftlands/worldsim/internal/worldseed"
	"github.com/driftlands/worldsim/internal/worldstate"
)

var (
	grpcPort      int
	redisAddress  string
	snapshotDir   string
	seedFile      string
	tickInterval  time.Duration
	oracleTimeout time.Duration
	snapshotEvery uint64
	tickWorkers   int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the world server",
	Long: `Start the tick loop for one world, restoring from the latest
snapshot when one exists and applying the seed file otherwise. A gRPC
endpoint serves health checks and reflection.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 50051, "gRPC server port")
	serverCmd.Flags().StringVar(&redisAddress, "redis-address", os.Getenv("REDIS_ADDRESS"),
		"redis endpoint for snapshots; file snapshots when empty")
	serverCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "data", "directory for file snapshots")
	serverCmd.Flags().StringVar(&seedFile, "seed-file", "configs/world.seed.yaml",
		"world seed applied when no snapshot exists")
	serverCmd.Flags().DurationVar(&tickInterval, "tick-interval", tick.DefaultInterval, "time between world cycles")
	serverCmd.Flags().DurationVar(&oracleTimeout, "oracle-timeout", tick.DefaultOracleTimeout,
		"per-call budget for oracle calls inside a cycle")
	serverCmd.Flags().Uint64Var(&snapshotEvery, "snapshot-every", tick.DefaultSnapshotEvery,
		"cycles between snapshot flushes")
	serverCmd.Flags().IntVar(&tickWorkers, "workers", tick.DefaultWorkers, "fan-out workers per cycle")
}

func runServer(cmd *cobra.Command, args []string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, gracefully stopping")
		cancel()
	}()

	clk := clock.New()

	seed, err := worldseed.Load(seedFile)
	if err != nil {
		return fmt.Errorf("failed to load world seed: %w", err)
	}

	snapshots, err := buildSnapshotRepository(clk)
	if err != nil {
		return err
	}

	store, err := worldstate.New(&worldstate.Config{
		Clock:              clk,
		IDGenerator:        idgen.NewUUID("w"),
		SpawnRoomID:        seed.SpawnRoomID,
		WildFallbackRoomID: seed.WildFallbackRoomID,
	})
	if err != nil {
		return fmt.Errorf("failed to create world store: %w", err)
	}

	if err := restoreOrSeed(ctx, store, snapshots, seed); err != nil {
		return err
	}

	policies := policy.New()
	market := economy.New()

	jobsEngine, err := jobs.New(&jobs.Config{Clock: clk, Catalogue: seed.Jobs})
	if err != nil {
		return fmt.Errorf("failed to create jobs engine: %w", err)
	}

	scheduler, err := schedule.New(&schedule.Config{Entries: seed.Scheduled})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	// The scripted oracle keeps the world running offline. A deployment
	// with a real planner swaps in oracle.NewClient with its Completer.
	planner, err := oracle.NewScripted(&oracle.ScriptedConfig{IDGenerator: idgen.NewUUID("gen")})
	if err != nil {
		return fmt.Errorf("failed to create oracle: %w", err)
	}

	actions, err := action.NewOrchestrator(&action.Config{
		Store:    store,
		Policies: policies,
		Economy:  market,
		Jobs:     jobsEngine,
		Oracle:   planner,
		Roller:   dice.DefaultRoller,
	})
	if err != nil {
		return fmt.Errorf("failed to create action orchestrator: %w", err)
	}

	ticker, err := tick.NewOrchestrator(&tick.Config{
		Store:         store,
		Actions:       actions,
		Economy:       market,
		Jobs:          jobsEngine,
		Scheduler:     scheduler,
		Oracle:        planner,
		Snapshots:     snapshots,
		Interval:      tickInterval,
		OracleTimeout: oracleTimeout,
		Workers:       tickWorkers,
		SnapshotEvery: snapshotEvery,
	})
	if err != nil {
		return fmt.Errorf("failed to create tick orchestrator: %w", err)
	}

	loopDone := make(chan error, 1)
	go func() {
		slog.Info("Tick loop starting", "interval", tickInterval, "snapshot_every", snapshotEvery)
		loopDone <- ticker.Run(ctx)
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("worldsim", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gRPC server starting", "port", grpcPort)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		// The loop flushes a final snapshot on its way out; wait for it
		// before taking the server down.
		if err := <-loopDone; err != nil {
			slog.Error("Tick loop exited with error", "error", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			slog.Warn("Graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			slog.Info("Server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		cancel()
		<-loopDone
		return err
	}
}

// buildSnapshotRepository picks redis when an address is configured and
// falls back to compressed file snapshots otherwise.
func buildSnapshotRepository(clk clock.Clock) (snapshot.Repository, error) {
	if redisAddress != "" {
		client, err := redisclient.NewClient(redisAddress, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		return snapshot.NewRedisRepository(&snapshot.Config{Client: client, Clock: clk})
	}
	return snapshot.NewFileRepository(&snapshot.FileConfig{Dir: snapshotDir, Clock: clk})
}

// restoreOrSeed restores the latest snapshot when one exists and seeds a
// fresh world otherwise.
func restoreOrSeed(ctx context.Context, store *worldstate.Store, snapshots snapshot.Repository, seed *worldseed.Seed) error {
	loaded, err := snapshots.Load(ctx, snapshot.LoadInput{})
	switch {
	case err == nil:
		if err := store.Restore(loaded.Snapshot); err != nil {
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
		slog.Info("World restored from snapshot",
			"tick", loaded.Snapshot.Tick,
			"saved_at", loaded.Snapshot.SavedAt)
		return nil
	case errors.IsNotFound(err):
		if err := store.Update(seed.Apply); err != nil {
			return fmt.Errorf("failed to apply world seed: %w", err)
		}
		slog.Info("World seeded",
			"seed_file", seedFile,
			"rooms", len(seed.World.Rooms),
			"cities", len(seed.World.Cities),
			"npcs", len(seed.NPCs),
			"jobs", len(seed.Jobs))
		return nil
	default:
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	switch level {
	case grpc_logging.LevelDebug:
		slog.DebugContext(ctx, msg, fields...)
	case grpc_logging.LevelWarn:
		slog.WarnContext(ctx, msg, fields...)
	case grpc_logging.LevelError:
		slog.ErrorContext(ctx, msg, fields...)
	default:
		slog.InfoContext(ctx, msg, fields...)
	}
}
