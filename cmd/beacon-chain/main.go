// Package main defines the entry point for the beacon chain node: flag
// parsing, logging setup, and wiring of the store, chain facade, event
// fabric and sync processor.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/db"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	"github.com/adaszko/lighthouse/beacon-chain/sync"
	"github.com/adaszko/lighthouse/shared/params"
)

var log = logrus.WithField("prefix", "main")

func main() {
	app := &cli.App{
		Name:  "beacon-chain",
		Usage: "Peer-sync core of an Ethereum 2.0 beacon node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "datadir",
				Usage: "Data directory for the databases",
				Value: defaultDataDir(),
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "Logging verbosity (trace, debug, info, warn, error, fatal)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "ws-addr",
				Usage: "Listen address of the websocket event server; empty disables it",
				Value: "127.0.0.1:5053",
			},
			&cli.BoolFlag{
				Name:  "clear-db",
				Usage: "Clears any previously stored data at the data directory",
			},
			&cli.BoolFlag{
				Name:  "minimal-config",
				Usage: "Uses minimal config with parameters as defined in the spec",
			},
		},
		Action: run,
	}
	logrus.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Beacon node failed")
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lighthouse"
	}
	return filepath.Join(home, ".lighthouse")
}

func run(cliCtx *cli.Context) error {
	level, err := logrus.ParseLevel(cliCtx.String("verbosity"))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if cliCtx.Bool("minimal-config") {
		log.Warn("Using minimal config")
		params.UseMinimalConfig()
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()

	beaconDB, err := db.NewDB(cliCtx.String("datadir"))
	if err != nil {
		return err
	}
	defer func() {
		if err := beaconDB.Close(); err != nil {
			log.WithError(err).Error("Could not close database")
		}
	}()
	if cliCtx.Bool("clear-db") {
		log.Warn("Clearing database")
		if err := beaconDB.ClearDB(); err != nil {
			return err
		}
	}

	eventHandler, headChanges, wsServer, err := buildEventFabric(cliCtx.String("ws-addr"))
	if err != nil {
		return err
	}
	if wsServer != nil {
		defer func() {
			if err := wsServer.Close(); err != nil {
				log.WithError(err).Error("Could not close websocket server")
			}
		}()
	}
	go logHeadChanges(ctx, headChanges)

	genesisState, genesisBlock := interopGenesis()
	chain, err := blockchain.NewService(ctx, beaconDB, eventHandler, genesisState, genesisBlock)
	if err != nil {
		return err
	}

	syncService := sync.NewService(ctx, &sync.Config{
		Chain:        chain,
		DB:           beaconDB,
		P2P:          &noopSender{},
		EventHandler: eventHandler,
	})
	syncService.Start()
	defer func() {
		if err := syncService.Stop(); err != nil {
			log.WithError(err).Error("Could not stop sync service")
		}
	}()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigC:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case <-ctx.Done():
	}
	return nil
}

// buildEventFabric stacks the configured event sinks: the head-change
// fan-out always runs, the websocket broadcast only with a listen address.
func buildEventFabric(wsAddr string) (events.EventHandler, <-chan [32]byte, *events.WebsocketServer, error) {
	fanout, headChanges := events.NewServerSentEvents()
	if wsAddr == "" {
		return fanout, headChanges, nil, nil
	}
	wsServer, err := events.NewWebsocketServer(wsAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	return &fanoutAndBroadcast{
		fanout:    fanout,
		broadcast: &events.WebsocketHandler{Server: wsServer},
	}, headChanges, wsServer, nil
}

// fanoutAndBroadcast feeds every event to both sinks.
type fanoutAndBroadcast struct {
	fanout    events.EventHandler
	broadcast events.EventHandler
}

func (h *fanoutAndBroadcast) Register(kind events.EventKind) error {
	if err := h.fanout.Register(kind); err != nil {
		return err
	}
	return h.broadcast.Register(kind)
}

func logHeadChanges(ctx context.Context, headChanges <-chan [32]byte) {
	for {
		select {
		case root := <-headChanges:
			log.WithField("root", root).Info("Chain head changed")
		case <-ctx.Done():
			return
		}
	}
}

// interopGenesis builds the deterministic empty genesis used until real
// state sync lands.
func interopGenesis() (*types.BeaconState, *types.BeaconBlock) {
	cfg := params.BeaconConfig()
	state := &types.BeaconState{
		GenesisTime:                0,
		Slot:                       0,
		Fork:                       &types.Fork{},
		BlockRoots:                 make([][32]byte, cfg.SlotsPerHistoricalRoot),
		StateRoots:                 make([][32]byte, cfg.SlotsPerHistoricalRoot),
		RandaoMixes:                make([][32]byte, cfg.EpochsPerHistoricalVector),
		CurrentJustifiedCheckpoint: &types.Checkpoint{},
		FinalizedCheckpoint:        &types.Checkpoint{},
	}
	block := &types.BeaconBlock{
		Slot:      0,
		StateRoot: state.HashTreeRoot(),
		Body:      &types.BeaconBlockBody{},
	}
	return state, block
}
