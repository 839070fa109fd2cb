package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/ritzau/gcn-trainer/pkg/config"
	"github.com/ritzau/gcn-trainer/pkg/dataset"
	"github.com/ritzau/gcn-trainer/pkg/gcn"
	"github.com/ritzau/gcn-trainer/pkg/graphdata"
	"github.com/ritzau/gcn-trainer/pkg/logging"
	"github.com/ritzau/gcn-trainer/pkg/output"
	"github.com/ritzau/gcn-trainer/pkg/pubsub"
	"github.com/ritzau/gcn-trainer/pkg/train"
	"github.com/ritzau/gcn-trainer/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("gcn-trainer", pflag.ExitOnError)
	f.String("dataset", "ogbn-products", "Dataset name, or 'synthetic' for a generated graph")
	f.String("data-dir", "data", "Directory holding <dataset>/raw CSV files")
	f.Int("sub-nodes", 100000, "Number of nodes to keep in the subgraph")
	f.Int("hidden-dim", 256, "Hidden dimension of the convolution layers")
	f.Float64("lr", 0.01, "Learning rate")
	f.Int("epochs", 200, "Epoch budget")
	f.Float64("dropout", 0.5, "Dropout probability")
	f.Int64("seed", 1, "Random seed (negative for time-based)")
	f.Bool("save-preds", false, "Write <dataset>_node.csv with the best model's predictions")
	f.Bool("web", false, "Serve live training progress over HTTP")
	f.Int("port", 8080, "Port for the progress server (only used with --web)")
	f.String("verbosity", "", "Log level: debug, info, warn, error")
	f.Bool("log-json", false, "Emit logs as JSON instead of the compact console format")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.LogJSON {
		logging.SetJSONOutput(logLevel(cfg.Verbosity))
	} else {
		logging.SetLevel(logLevel(cfg.Verbosity))
	}

	if err := run(cfg); err != nil {
		logging.Fatal("run failed", "error", err)
	}
}

func run(cfg *config.Config) error {
	runID := uuid.New().String()
	ctx := logging.WithRunID(context.Background(), runID)

	seed := cfg.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logging.InfoContext(ctx, "starting training run",
		"dataset", cfg.Dataset, "seed", seed, "epochs", cfg.Epochs)

	g, err := loadGraph(cfg, rng)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	if cfg.SubNodes < g.NumNodes() {
		g, err = g.Subgraph(cfg.SubNodes)
		if err != nil {
			return fmt.Errorf("sampling subgraph: %w", err)
		}
		logging.InfoContext(ctx, "sampled subgraph", "nodes", g.NumNodes(), "edges", g.NumEdges())
	}

	stats := graphdata.Summarize(g)
	logging.InfoContext(ctx, "graph summary",
		"nodes", stats.Nodes,
		"edges", stats.EdgePairs,
		"components", stats.Components,
		"isolated", stats.Isolated,
		"meanDegree", fmt.Sprintf("%.2f", stats.MeanDegree),
		"maxDegree", stats.MaxDegree,
	)

	split, err := graphdata.RandomSplit(g.NumNodes(), graphdata.DefaultFractions, rng)
	if err != nil {
		return fmt.Errorf("splitting nodes: %w", err)
	}

	model := gcn.New(g.NumFeatures(), cfg.HiddenDim, g.NumClasses, cfg.Dropout, false)
	trainer := train.New(model, g, split, train.NewEvaluator(cfg.Dataset), cfg.Epochs, cfg.LR, rng)

	var server *web.Server
	if cfg.WebMode {
		server = startWebServerAsync(cfg, runID, g, trainer)
	}

	result, err := trainer.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.SavePreds {
		path := train.PredictionsFile(cfg.Dataset)
		if err := train.WritePredictions(path, trainer.Predict(result.BestModel)); err != nil {
			return fmt.Errorf("saving predictions: %w", err)
		}
	}

	output.PrintTrainingReport(os.Stdout, cfg.Dataset, stats, result)

	if server != nil {
		logging.InfoContext(ctx, "training done, progress server still serving", "port", cfg.Port)
		select {}
	}
	return nil
}

// loadGraph reads the configured dataset from disk, or generates one
// when the synthetic dataset is selected.
func loadGraph(cfg *config.Config, rng *rand.Rand) (*graphdata.Graph, error) {
	if cfg.Dataset == "synthetic" {
		return dataset.Synthetic(cfg.SubNodes, 100, 47, 5, rng)
	}
	return dataset.Load(cfg.DataDir, cfg.Dataset)
}

// startWebServerAsync brings up the progress server and wires the
// trainer's publisher to it before training starts.
func startWebServerAsync(cfg *config.Config, runID string, g *graphdata.Graph, trainer *train.Trainer) *web.Server {
	server := web.NewServer()
	server.SetRunInfo(web.RunInfo{
		RunID:     runID,
		Dataset:   cfg.Dataset,
		Nodes:     g.NumNodes(),
		Edges:     g.NumEdges(),
		Classes:   g.NumClasses,
		HiddenDim: cfg.HiddenDim,
		Epochs:    cfg.Epochs,
	})
	trainer.Publisher = &recordingPublisher{inner: server.Publisher(), server: server}

	go func() {
		if err := server.Start(cfg.Port); err != nil {
			logging.Fatal("progress server failed", "error", err)
		}
	}()

	// Give the listener a moment before pointing a browser at it
	time.Sleep(500 * time.Millisecond)
	openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	return server
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Debug("cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}

// recordingPublisher forwards events to the SSE publisher and keeps a
// copy of epoch metrics for the polling endpoint.
type recordingPublisher struct {
	inner  pubsub.Publisher
	server *web.Server
}

func (p *recordingPublisher) Subscribe(ctx context.Context, topic string) (pubsub.Subscription, error) {
	return p.inner.Subscribe(ctx, topic)
}

func (p *recordingPublisher) Publish(topic string, eventType string, data interface{}) error {
	if m, ok := data.(pubsub.EpochMetrics); ok {
		p.server.RecordMetrics(m)
	}
	return p.inner.Publish(topic, eventType, data)
}

func (p *recordingPublisher) Close() error {
	return p.inner.Close()
}

func logLevel(verbosity string) slog.Level {
	switch verbosity {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
