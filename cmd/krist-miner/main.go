// krist-miner - proof-of-work miner for the Krist network
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krist-network/krist-miner/internal/api"
	"github.com/krist-network/krist-miner/internal/config"
	"github.com/krist-network/krist-miner/internal/krist"
	"github.com/krist-network/krist-miner/internal/miner"
	"github.com/krist-network/krist-miner/internal/node"
	"github.com/krist-network/krist-miner/internal/notify"
	"github.com/krist-network/krist-miner/internal/profiling"
	"github.com/krist-network/krist-miner/internal/util"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("krist-miner v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := util.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	util.Infof("krist-miner v%s starting", version)

	address, err := cfg.MiningAddress()
	if err != nil {
		util.Fatalf("Invalid mining address: %v", err)
	}

	// Connect to the Krist node
	client := node.NewClient(cfg.Node.URL, address)
	if err := client.Start(); err != nil {
		util.Fatalf("Failed to connect to node: %v", err)
	}

	// Build and start the mining engine
	engine := miner.New(miner.Config{
		Address:        address,
		CPUEnabled:     cfg.CPU.Enabled,
		CPUThreads:     cfg.CPU.Threads,
		CPUKernel:      cfg.CPU.Kernel,
		GPUEnabled:     cfg.GPU.Enabled,
		GPUDevices:     cfg.GPU.Devices,
		GPUTargetRate:  cfg.GPU.TargetRate,
		GPUMaxWorkSize: cfg.GPU.MaxWorkSize,
	}, client)

	notifier := notify.NewNotifier(&cfg.Notify)
	engine.OnBlockMined(func(t krist.Target) {
		notifier.NotifyBlockMined(address, t)
	})

	if err := engine.Start(); err != nil {
		util.Fatalf("Failed to start mining engine: %v", err)
	}

	// Start API server
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg)
		apiServer.SetStatsFunc(engine.Snapshot)
		if err := apiServer.Start(); err != nil {
			util.Errorf("Failed to start API server: %v", err)
		}
	}

	// Start pprof profiling server if enabled
	var pprofServer *profiling.Server
	if cfg.Profiling.Enabled {
		pprofServer = profiling.NewServer(&cfg.Profiling)
		if err := pprofServer.Start(); err != nil {
			util.Errorf("Failed to start pprof server: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	util.Info("Miner started. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		util.Info("Shutting down...")
	case err := <-engine.Done():
		if err != nil {
			util.Errorf("Mining engine stopped: %v", err)
		} else {
			util.Info("Mining engine stopped")
		}
	}

	// Graceful shutdown
	if apiServer != nil {
		apiServer.Stop()
	}
	if pprofServer != nil {
		pprofServer.Stop()
	}
	engine.Stop()
	client.Stop()

	util.Info("Miner stopped")
}
