// Command kasa starts the card game server.
//
// It exposes a single websocket endpoint at /ws over which clients queue
// for matches, play turns, and receive lobby statistics. Match results
// land in Postgres; the -memory flag swaps in an in-memory store for
// local play.
//
// Flags control the listen address, database DSN, turn timeout, and debug
// logging. A .env file in the working directory is loaded when present.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/tkoskela/kasa/game/lobby"
	"github.com/tkoskela/kasa/game/service"
	"github.com/tkoskela/kasa/storage"
	"github.com/tkoskela/kasa/transport/websocket"
	"github.com/tkoskela/kasa/wire"
)

const (
	Version = "1.0.0"
	AppName = "kasa"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    AppName,
		Usage:   "real-time card game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Usage:   "listen address for the websocket endpoint",
				Sources: cli.EnvVars("SERVER_ADDR"),
			},
			&cli.StringFlag{
				Name:    "db-dsn",
				Usage:   "Postgres DSN for match results",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "keep results in memory instead of Postgres",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.DurationFlag{
				Name:  "turn-timeout",
				Value: 120 * time.Second,
				Usage: "inactivity window before a turn is forfeited",
			},
			&cli.DurationFlag{
				Name:  "stale-after",
				Value: 2 * time.Hour,
				Usage: "age after which an abandoned session is swept",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := newStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	reg := lobby.New(log, store)
	server := websocket.NewServer(log)
	lobbySvc := service.NewLobbyService(log, reg, server, cmd.Duration("turn-timeout"))
	gameSvc := service.NewGameService(log, reg, lobbySvc, server)

	server.OnConnect(lobbySvc.Connect)
	server.OnDisconnect(lobbySvc.Disconnect)

	server.On(wire.EventLobbyQueue, func(connID string, payload []byte) {
		var req wire.LobbyQueueRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn("bad queue payload", zap.String("conn_id", connID), zap.Error(err))
			return
		}
		lobbySvc.HandleQueue(connID, &req)
	})
	server.On(wire.EventGameTurn, func(connID string, payload []byte) {
		var req wire.GameTurnRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			log.Warn("bad turn payload", zap.String("conn_id", connID), zap.Error(err))
			return
		}
		gameSvc.HandleTurn(connID, &req)
	})
	server.On(wire.EventLobbyStatistics, func(connID string, payload []byte) {
		if err := server.EmitTo(connID, wire.EventLobbyStatistics, reg.Statistics()); err != nil {
			log.Debug("push statistics", zap.String("conn_id", connID), zap.Error(err))
		}
	})
	server.On(wire.EventDisconnect, func(connID string, payload []byte) {
		lobbySvc.Disconnect(connID)
	})

	sched, err := startJobs(log, reg, lobbySvc, cmd.Duration("stale-after"))
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = sched.Shutdown() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		zap.String("version", Version),
		zap.String("addr", cmd.String("addr")))
	return server.ListenAndServe(ctx, cmd.String("addr"))
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newStore(cmd *cli.Command) (storage.Store, error) {
	if cmd.Bool("memory") {
		return storage.NewMemoryStore(), nil
	}
	return storage.OpenGorm(cmd.String("db-dsn"))
}

// startJobs wires the periodic maintenance tasks: sweeping abandoned
// sessions and refreshing the lobby statistics on every open socket.
func startJobs(log *zap.Logger, reg *lobby.Lobby, lobbySvc *service.LobbyService, staleAfter time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			if n := reg.CleanupStale(staleAfter); n > 0 {
				log.Info("swept stale sessions", zap.Int("count", n))
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(lobbySvc.Statistics),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
