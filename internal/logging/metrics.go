package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"flapneat/internal/env"
	"flapneat/internal/ga"
)

// NewRunID returns a fresh identifier for a training run
func NewRunID() string {
	return uuid.NewString()
}

// Logger writes per-generation metrics as CSV and JSON lines
type Logger struct {
	runID       string
	every       int
	csvPath     string
	jsonPath    string
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	console     io.Writer
	start       time.Time
	initialized bool
}

// NewLogger creates a new logger; every controls how often generations are
// written (1 = all)
func NewLogger(runID, csvPath, jsonPath string, every int) (*Logger, error) {
	if every <= 0 {
		every = 1
	}
	l := &Logger{
		runID:    runID,
		every:    every,
		csvPath:  csvPath,
		jsonPath: jsonPath,
		console:  os.Stdout,
		start:    time.Now(),
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}

	return l, nil
}

// SetConsole redirects the human readable summary line; nil silences it
func (l *Logger) SetConsole(w io.Writer) {
	l.console = w
}

var csvHeader = []string{
	"run_id", "generation", "agents", "species", "new_species",
	"extinct_culled", "stale_culled", "best_fitness", "mean_fitness",
	"std_fitness", "champion_fitness", "high_score",
}

// Init initializes the log files
func (l *Logger) Init() error {
	var err error

	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)
	if err := l.csvWriter.Write(csvHeader); err != nil {
		return err
	}
	l.csvWriter.Flush()

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	l.initialized = true
	return nil
}

// Close closes all log files
func (l *Logger) Close() error {
	var firstErr error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		firstErr = l.csvWriter.Error()
	}
	for _, f := range []*os.File{l.csvFile, l.jsonFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GenerationSummary holds per-generation statistics
type GenerationSummary struct {
	RunID     string `json:"run_id"`
	HighScore int    `json:"high_score"`
	ga.Report
}

// Summarize tags a natural selection report with the run and course score
func Summarize(runID string, report ga.Report, highScore int) GenerationSummary {
	return GenerationSummary{
		RunID:     runID,
		HighScore: highScore,
		Report:    report,
	}
}

// LogGeneration writes the summary when its generation is due. Returns
// whether anything was written.
func (l *Logger) LogGeneration(s GenerationSummary) (bool, error) {
	if !l.initialized || s.Generation%l.every != 0 {
		return false, nil
	}

	row := []string{
		s.RunID,
		strconv.Itoa(s.Generation),
		strconv.Itoa(s.Agents),
		strconv.Itoa(s.Species),
		strconv.Itoa(s.NewSpecies),
		strconv.Itoa(s.ExtinctCulled),
		strconv.Itoa(s.StaleCulled),
		fmt.Sprintf("%.2f", s.BestFitness),
		fmt.Sprintf("%.2f", s.MeanFitness),
		fmt.Sprintf("%.2f", s.StdFitness),
		fmt.Sprintf("%.2f", s.ChampionFitness),
		strconv.Itoa(s.HighScore),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return false, err
	}
	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		return false, err
	}

	line, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
		return false, err
	}

	if l.console != nil {
		fmt.Fprintln(l.console, l.consoleLine(s))
	}
	return true, nil
}

func (l *Logger) consoleLine(s GenerationSummary) string {
	return fmt.Sprintf("Gen %4d | Best: %8s ticks | Mean: %8.1f | Species: %3d | High score: %s | %s",
		s.Generation,
		humanize.Comma(int64(s.BestFitness)),
		s.MeanFitness,
		s.Species,
		humanize.Comma(int64(s.HighScore)),
		humanize.RelTime(l.start, time.Now(), "elapsed", "ahead"),
	)
}

// LogBenchmark prints champion benchmark results with their robustness score
func (l *Logger) LogBenchmark(gen int, agg env.AggregatedStats, lambda float64) {
	if l.console == nil || agg.NumEpisodes == 0 {
		return
	}
	fmt.Fprintf(l.console, "  [Benchmark] Gen %d: %d seeds, Ticks=%.1f±%.1f, Robust=%.1f, Pipes=%.2f (best %d), Deaths: G=%d P=%d T=%d\n",
		gen, agg.NumEpisodes, agg.TicksMean, agg.TicksStd, agg.RobustnessScore(lambda), agg.PipesMean, agg.BestPipes,
		agg.DeathCounts[env.DeathGround], agg.DeathCounts[env.DeathPipe], agg.DeathCounts[env.DeathTimeout])
}
