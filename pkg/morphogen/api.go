package morphogen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"morphogen/internal/automaton"
	"morphogen/internal/evo"
	"morphogen/internal/model"
	"morphogen/internal/stats"
	"morphogen/internal/storage"
	"morphogen/internal/target"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "morphogen.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
}

type Client struct {
	store      storage.Store
	storeReady bool

	runsDir    string
	exportsDir string
}

type RunRequest struct {
	RunID          string
	Rule           string
	TargetNumber   int
	PopulationSize int
	SampleSize     int
	MaxBirths      int
	Steps          int
	SeedSize       int
	ProbA          float64
	ProbB          float64
	ProbMutation   float64
	Seed           int64
	ReportEvery    int
}

type RunSummary struct {
	RunID          string
	ArtifactsDir   string
	Rule           string
	TargetNumber   int
	BestFitness    int
	BestSlot       int
	Found          bool
	FitnessHistory []int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Rule           string
	TargetNumber   int
	PopulationSize int
	MaxBirths      int
	Seed           int64
	BestFitness    int
	Found          bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type BestMemberRequest struct {
	RunID  string
	Latest bool
}

type BestMemberItem struct {
	RunID  string
	Seed   model.Grid
	Adult  model.Grid
	Result model.FitnessResult
}

type TargetRequest struct {
	Rule         string
	TargetNumber int
	OutDir       string
}

type TargetSummary struct {
	Label   string
	RLEPath string
	PNGPath string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// Run executes a full search: bootstrap, MaxBirths steady-state births, and
// the final report. Artifacts land in a timestamped directory under RunsDir
// and the run outcome is persisted through the configured store.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Rule == "" {
		req.Rule = "Immigration:T60,60"
	}
	rule, err := automaton.ParseRule(req.Rule)
	if err != nil {
		return RunSummary{}, err
	}
	applyRunDefaults(&req, rule.Alphabet)
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	cfg := evo.Config{
		PopulationSize: req.PopulationSize,
		SampleSize:     req.SampleSize,
		MaxBirths:      req.MaxBirths,
		Steps:          req.Steps,
		SeedSize:       req.SeedSize,
		ProbA:          req.ProbA,
		ProbB:          req.ProbB,
		ProbMutation:   req.ProbMutation,
		ReportEvery:    req.ReportEvery,
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	targetGrid, err := target.Generate(rule.Alphabet, req.TargetNumber)
	if err != nil {
		return RunSummary{}, err
	}

	grower := automaton.NewGrower()
	if err := grower.Configure(rule.ID()); err != nil {
		return RunSummary{}, err
	}

	createdAt := time.Now().UTC()
	runDir := filepath.Join(c.runsDir, stats.RunDirName(req.RunID, createdAt))

	runLog, err := stats.NewRunLog(runDir, rule.Alphabet, req.TargetNumber, rule.ID())
	if err != nil {
		return RunSummary{}, err
	}
	defer runLog.Close()

	logCfg := stats.RunConfig{
		RunID:          req.RunID,
		Rule:           rule.ID(),
		TargetNumber:   req.TargetNumber,
		PopulationSize: req.PopulationSize,
		SampleSize:     req.SampleSize,
		MaxBirths:      req.MaxBirths,
		Steps:          req.Steps,
		SeedSize:       req.SeedSize,
		ProbA:          req.ProbA,
		ProbB:          req.ProbB,
		ProbMutation:   req.ProbMutation,
		Seed:           req.Seed,
		ReportEvery:    req.ReportEvery,
	}
	runLog.WriteSettings(logCfg)
	runLog.WriteTarget(target.Label(req.TargetNumber))

	reporter := &runReporter{log: runLog}
	engine, err := evo.NewEngine(cfg, rule.Alphabet, targetGrid, grower, rand.New(rand.NewSource(req.Seed)), reporter)
	if err != nil {
		return RunSummary{}, err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if err := runLog.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("run log: %w", err)
	}

	if err := stats.WriteRunArtifacts(runDir, stats.RunArtifacts{
		Config:           logCfg,
		FitnessHistory:   reporter.history,
		FinalBestFitness: result.BestFitness,
		Found:            result.Found,
	}); err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:          req.RunID,
		Rule:           rule.ID(),
		TargetNumber:   req.TargetNumber,
		PopulationSize: req.PopulationSize,
		MaxBirths:      req.MaxBirths,
		Seed:           req.Seed,
		BestFitness:    result.BestFitness,
		Found:          result.Found,
		CreatedAtUTC:   stats.TimestampUTC(createdAt),
	}); err != nil {
		return RunSummary{}, err
	}

	if err := c.persistRun(ctx, req, rule, createdAt, result, reporter.history); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:          req.RunID,
		ArtifactsDir:   filepath.Clean(runDir),
		Rule:           rule.ID(),
		TargetNumber:   req.TargetNumber,
		BestFitness:    result.BestFitness,
		BestSlot:       result.BestSlot,
		Found:          result.Found,
		FitnessHistory: append([]int(nil), reporter.history...),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Rule:           e.Rule,
			TargetNumber:   e.TargetNumber,
			PopulationSize: e.PopulationSize,
			MaxBirths:      e.MaxBirths,
			Seed:           e.Seed,
			BestFitness:    e.BestFitness,
			Found:          e.Found,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]int, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "history")
	if err != nil {
		return nil, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) BestMember(ctx context.Context, req BestMemberRequest) (BestMemberItem, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "best member")
	if err != nil {
		return BestMemberItem{}, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return BestMemberItem{}, err
	}
	best, ok, err := c.store.GetBestMember(ctx, runID)
	if err != nil {
		return BestMemberItem{}, err
	}
	if !ok {
		return BestMemberItem{}, fmt.Errorf("best member not found for run id: %s", runID)
	}
	return BestMemberItem{
		RunID:  best.RunID,
		Seed:   best.Seed,
		Adult:  best.Adult,
		Result: best.Result,
	}, nil
}

// Target writes a target pattern to OutDir as RLE and PNG without running a
// search, for previewing what a run would evolve toward.
func (c *Client) Target(_ context.Context, req TargetRequest) (TargetSummary, error) {
	if req.Rule == "" {
		req.Rule = "Immigration:T60,60"
	}
	if req.TargetNumber == 0 {
		req.TargetNumber = 1
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	rule, err := automaton.ParseRule(req.Rule)
	if err != nil {
		return TargetSummary{}, err
	}
	grid, err := target.Generate(rule.Alphabet, req.TargetNumber)
	if err != nil {
		return TargetSummary{}, err
	}

	if err := ensureDir(req.OutDir); err != nil {
		return TargetSummary{}, err
	}
	base := fmt.Sprintf("photo_target%d", req.TargetNumber)
	rlePath := filepath.Join(req.OutDir, base+".rle")
	pngPath := filepath.Join(req.OutDir, base+".png")
	if err := stats.WriteRLE(rlePath, grid, rule.ID(), rule.Alphabet); err != nil {
		return TargetSummary{}, err
	}
	if err := stats.RenderPNG(pngPath, grid, rule.Alphabet); err != nil {
		return TargetSummary{}, err
	}

	return TargetSummary{
		Label:   target.Label(req.TargetNumber),
		RLEPath: rlePath,
		PNGPath: pngPath,
	}, nil
}

func (c *Client) persistRun(ctx context.Context, req RunRequest, rule automaton.Rule, createdAt time.Time, result evo.Result, history []int) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}

	run := model.RunRecord{
		VersionedRecord: storage.Stamp(),
		ID:              req.RunID,
		CreatedAtUTC:    stats.TimestampUTC(createdAt),
		Rule:            rule.ID(),
		TargetNumber:    req.TargetNumber,
		PopulationSize:  req.PopulationSize,
		SampleSize:      req.SampleSize,
		MaxBirths:       req.MaxBirths,
		Steps:           req.Steps,
		SeedSize:        req.SeedSize,
		ProbA:           req.ProbA,
		ProbB:           req.ProbB,
		ProbMutation:    req.ProbMutation,
		RandSeed:        req.Seed,
		BestFitness:     result.BestFitness,
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return err
	}

	if result.Found {
		best := model.BestMemberRecord{
			VersionedRecord: storage.Stamp(),
			RunID:           req.RunID,
			Seed:            result.Best.Seed,
			Adult:           result.Best.Adult,
			Result:          result.BestResult,
		}
		if err := c.store.SaveBestMember(ctx, best); err != nil {
			return err
		}
	}

	return c.store.SaveFitnessHistory(ctx, req.RunID, history)
}

func (c *Client) resolveRunID(runID string, latest bool, operation string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("%s requires run id or latest", operation)
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.storeReady {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.storeReady = true
	return nil
}

// applyRunDefaults fills zero-valued request fields with per-rule-family
// defaults. Three-state and two-state searches converge at different scales,
// so population, birth budget, and seed parameters differ between them.
func applyRunDefaults(req *RunRequest, alphabet model.Alphabet) {
	if req.TargetNumber == 0 {
		req.TargetNumber = 1
	}
	if req.SampleSize <= 0 {
		req.SampleSize = 40
	}
	if req.Steps <= 0 {
		req.Steps = 100
	}
	if alphabet == model.ThreeState {
		if req.PopulationSize <= 0 {
			req.PopulationSize = 2000
		}
		if req.MaxBirths <= 0 {
			req.MaxBirths = 500000
		}
		if req.SeedSize <= 0 {
			req.SeedSize = 20
		}
		if req.ProbA <= 0 {
			req.ProbA = 0.3
		}
		if req.ProbB <= 0 {
			req.ProbB = 0.3
		}
	} else {
		if req.PopulationSize <= 0 {
			req.PopulationSize = 1000
		}
		if req.MaxBirths <= 0 {
			req.MaxBirths = 1000000
		}
		if req.SeedSize <= 0 {
			req.SeedSize = 30
		}
		if req.ProbA <= 0 {
			req.ProbA = 0.5
		}
	}
	if req.ProbMutation <= 0 {
		req.ProbMutation = 0.1
	}
}

// runReporter forwards engine events to the run log and captures the best
// fitness series for persistence.
type runReporter struct {
	log     *stats.RunLog
	history []int
}

func (r *runReporter) Progress(birth, bestFitness int) {
	r.history = append(r.history, bestFitness)
	r.log.Progress(birth, bestFitness)
}

func (r *runReporter) Improvement(slot int, result model.FitnessResult) {
	r.log.Improvement(slot, result)
}

func (r *runReporter) EmitGrid(label string, grid model.Grid) {
	r.log.EmitGrid(label, grid)
}
