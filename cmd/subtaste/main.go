package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/subtaste/internal"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/reading"
	"github.com/starford/subtaste/internal/signal"
	pkgconfig "github.com/starford/subtaste/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// loadScoringConfig is for the offline commands, which run on defaults when
// no config file exists.
func loadScoringConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// readInput reads the file named by the first argument, or stdin when it is
// missing or "-".
func readInput(cmd *cli.Command) ([]byte, error) {
	name := cmd.Args().First()
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// offlineService scores against a throwaway memory store.
func offlineService(cmd *cli.Command) (*genomeservice.Service, error) {
	cfg, err := loadScoringConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return genomeservice.New(genomestore.NewMemory(),
		genomeservice.WithTuning(cfg.Scoring),
		genomeservice.WithEvolution(cfg.Evolution),
		genomeservice.WithLogger(logger),
	), nil
}

func classify(ctx context.Context, cmd *cli.Command) error {
	svc, err := offlineService(cmd)
	if err != nil {
		return err
	}
	data, err := readInput(cmd)
	if err != nil {
		return fmt.Errorf("read signals: %w", err)
	}
	var signals []signal.Signal
	if err := json.Unmarshal(data, &signals); err != nil {
		return fmt.Errorf("decode signals: %w", err)
	}
	res, err := svc.Classify(ctx, signals, cmd.String("context"))
	if err != nil {
		return err
	}
	if cmd.Bool("full") {
		return printJSON(res)
	}
	return printJSON(res.Classification)
}

func deriveReading(ctx context.Context, cmd *cli.Command) error {
	svc, err := offlineService(cmd)
	if err != nil {
		return err
	}
	var in reading.AxesInput
	for name, dst := range map[string]**float64{
		"order-chaos":         &in.OrderChaos,
		"mercy-ruthlessness":  &in.MercyRuthlessness,
		"introvert-extrovert": &in.IntrovertExtrovert,
		"faith-doubt":         &in.FaithDoubt,
	} {
		if cmd.IsSet(name) {
			v := cmd.Float(name)
			*dst = &v
		}
	}
	r, err := svc.DeriveReading(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(r)
}

func axisFlag(name, usage string) cli.Flag {
	return &cli.FloatFlag{Name: name, Usage: usage + " in [0,1], default 0.5"}
}

func main() {
	cmd := &cli.Command{
		Name:    "subtaste",
		Usage:   "Taste genome classifier: twelve archetypes from explicit and implicit signals",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE stream and inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "classify",
				Usage:     "Classify a JSON array of signals without storing anything",
				ArgsUsage: "[signals.json|-]",
				Action:    classify,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "context", Usage: "Context label (Creating, Consuming, Curating or custom)"},
					&cli.BoolFlag{Name: "full", Usage: "Print the full engine result"},
				},
			},
			{
				Name:   "reading",
				Usage:  "Derive a hexagram reading from four axes",
				Action: deriveReading,
				Flags: []cli.Flag{
					axisFlag("order-chaos", "Order (0) to chaos (1)"),
					axisFlag("mercy-ruthlessness", "Mercy (0) to ruthlessness (1)"),
					axisFlag("introvert-extrovert", "Introvert (0) to extrovert (1)"),
					axisFlag("faith-doubt", "Faith (0) to doubt (1)"),
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
