package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"morphogen/internal/storage"
	morphapi "morphogen/pkg/morphogen"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "target":
		return runTarget(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(storeKind, dbPath string) (*morphapi.Client, error) {
	return morphapi.New(morphapi.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "morphogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON run config; flags override its fields")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "morphogen.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id (random uuid when empty)")
	rule := fs.String("rule", "Immigration:T60,60", "automaton rule: Immigration or B.../S... notation")
	targetNumber := fs.Int("target", 1, "target pattern number (1-5)")
	population := fs.Int("pop", 0, "population size")
	sample := fs.Int("sample", 0, "sample size for bootstrap and selection")
	maxBirths := fs.Int("max-births", 0, "number of steady-state births")
	steps := fs.Int("steps", 0, "automaton steps per growth")
	seedSize := fs.Int("seed-size", 0, "seed grid side length")
	probA := fs.Float64("prob-a", 0, "seed probability of color A")
	probB := fs.Float64("prob-b", 0, "seed probability of color B (three-state only)")
	probMutation := fs.Float64("prob-mutation", 0, "per-cell mutation probability")
	seed := fs.Int64("seed", 0, "random seed")
	reportEvery := fs.Int("report-every", 0, "record best fitness every N births (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var req morphapi.RunRequest
	if *configPath == "" {
		req = morphapi.RunRequest{
			RunID:          *runID,
			Rule:           *rule,
			TargetNumber:   *targetNumber,
			PopulationSize: *population,
			SampleSize:     *sample,
			MaxBirths:      *maxBirths,
			Steps:          *steps,
			SeedSize:       *seedSize,
			ProbA:          *probA,
			ProbB:          *probB,
			ProbMutation:   *probMutation,
			Seed:           *seed,
			ReportEvery:    *reportEvery,
		}
	} else {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":        *runID,
			"rule":          *rule,
			"target":        *targetNumber,
			"pop":           *population,
			"sample":        *sample,
			"max-births":    *maxBirths,
			"steps":         *steps,
			"seed-size":     *seedSize,
			"prob-a":        *probA,
			"prob-b":        *probB,
			"prob-mutation": *probMutation,
			"seed":          *seed,
			"report-every":  *reportEvery,
		})
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s rule=%s target=%d seed=%d\n",
		summary.RunID, summary.Rule, summary.TargetNumber, req.Seed)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		for i, best := range summary.FitnessHistory {
			fmt.Printf("report=%d best_fitness=%d\n", i+1, best)
		}
	}
	fmt.Printf("best_fitness=%d slot=%d found=%t\n", summary.BestFitness, summary.BestSlot, summary.Found)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient("", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, morphapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID          string `json:"run_id"`
			CreatedAtUTC   string `json:"created_at_utc"`
			Rule           string `json:"rule"`
			TargetNumber   int    `json:"target_number"`
			PopulationSize int    `json:"population_size"`
			MaxBirths      int    `json:"max_births"`
			Seed           int64  `json:"seed"`
			BestFitness    int    `json:"best_fitness"`
			Found          bool   `json:"found"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem{
				RunID:          item.RunID,
				CreatedAtUTC:   item.CreatedAtUTC,
				Rule:           item.Rule,
				TargetNumber:   item.TargetNumber,
				PopulationSize: item.PopulationSize,
				MaxBirths:      item.MaxBirths,
				Seed:           item.Seed,
				BestFitness:    item.BestFitness,
				Found:          item.Found,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created=%s rule=%s target=%d pop=%s births=%s best_fitness=%d found=%t\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Rule,
			item.TargetNumber,
			humanize.Comma(int64(item.PopulationSize)),
			humanize.Comma(int64(item.MaxBirths)),
			item.BestFitness,
			item.Found,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max entries to print (0 = all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "morphogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, morphapi.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for i, best := range history {
		fmt.Printf("report=%d best_fitness=%d\n", i+1, best)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "morphogen.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	best, err := client.BestMember(ctx, morphapi.BestMemberRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	fmt.Printf("run_id=%s fitness=%d true_a=%d true_b=%d false_a=%d false_b=%d\n",
		best.RunID,
		best.Result.Fitness,
		best.Result.TrueA,
		best.Result.TrueB,
		best.Result.FalseA,
		best.Result.FalseB,
	)
	fmt.Printf("seed_side=%d adult_side=%d\n", best.Seed.Side, best.Adult.Side)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "destination directory (default exports/)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, morphapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
	return nil
}

func runTarget(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("target", flag.ContinueOnError)
	rule := fs.String("rule", "Immigration:T60,60", "automaton rule deciding the cell alphabet")
	targetNumber := fs.Int("target", 1, "target pattern number (1-5)")
	outDir := fs.String("out", "", "destination directory (default exports/)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Target(ctx, morphapi.TargetRequest{Rule: *rule, TargetNumber: *targetNumber, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("target=%s rle=%s png=%s\n", summary.Label, summary.RLEPath, summary.PNGPath)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: morphogenctl <init|run|runs|history|best|export|target> [flags]", msg)
}
