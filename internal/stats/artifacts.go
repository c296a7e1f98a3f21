package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

const runIndexFile = "run_index.json"

// RunConfig is the per-run configuration written to config.json and echoed
// into the text log's settings block.
type RunConfig struct {
	RunID          string  `json:"run_id"`
	Rule           string  `json:"rule"`
	TargetNumber   int     `json:"target_number"`
	PopulationSize int     `json:"population_size"`
	SampleSize     int     `json:"sample_size"`
	MaxBirths      int     `json:"max_births"`
	Steps          int     `json:"num_steps"`
	SeedSize       int     `json:"seed_size"`
	ProbA          float64 `json:"prob_a"`
	ProbB          float64 `json:"prob_b"`
	ProbMutation   float64 `json:"prob_mutation"`
	Seed           int64   `json:"seed"`
	ReportEvery    int     `json:"report_every"`
}

// RunArtifacts is everything a finished run leaves on disk besides the text
// log and the grid exports.
type RunArtifacts struct {
	Config           RunConfig `json:"config"`
	FitnessHistory   []int     `json:"fitness_history"`
	FinalBestFitness int       `json:"final_best_fitness"`
	Found            bool      `json:"found"`
}

type RunIndexEntry struct {
	RunID          string `json:"run_id"`
	Rule           string `json:"rule"`
	TargetNumber   int    `json:"target_number"`
	PopulationSize int    `json:"population_size"`
	MaxBirths      int    `json:"max_births"`
	Seed           int64  `json:"seed"`
	BestFitness    int    `json:"best_fitness"`
	Found          bool   `json:"found"`
	CreatedAtUTC   string `json:"created_at_utc"`
}

// TimestampUTC formats a time the way run records and the run index store it.
func TimestampUTC(t time.Time) string {
	return strftime.Format("%Y-%m-%dT%H:%M:%SZ", t.UTC())
}

// RunDirName builds the on-disk directory name for a run. The timestamp
// prefix keeps a plain directory listing in run order.
func RunDirName(runID string, createdAt time.Time) string {
	return strftime.Format("%Y%m%d-%H%M%S", createdAt.UTC()) + "-" + runID
}

func WriteRunArtifacts(runDir string, artifacts RunArtifacts) error {
	if artifacts.Config.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{
		"fitness_history":    artifacts.FitnessHistory,
		"final_best_fitness": artifacts.FinalBestFitness,
		"found":              artifacts.Found,
	})
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

// FindRunDir locates the directory of a run by its id, accounting for the
// timestamp prefix in directory names.
func FindRunDir(baseDir, runID string) (string, bool, error) {
	if runID == "" {
		return "", false, fmt.Errorf("run id is required")
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	suffix := "-" + runID
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == runID || strings.HasSuffix(name, suffix) {
			return filepath.Join(baseDir, name), true, nil
		}
	}
	return "", false, nil
}

// ExportRunArtifacts copies a run's artifacts to outDir, skipping optional
// files (grid exports) that the run did not produce.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	src, ok, err := FindRunDir(baseDir, runID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("run %s has no artifact directory under %s", runID, baseDir)
	}

	dst := filepath.Join(outDir, filepath.Base(src))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	runDir, ok, err := FindRunDir(baseDir, runID)
	if err != nil || !ok {
		return RunConfig{}, false, err
	}

	data, err := os.ReadFile(filepath.Join(runDir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
