package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pidlab/internal/analysis"
	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var ErrMalformedTrace = errors.New("malformed trace")

var traceHeader = []string{"time", "measured", "setpoint", "output", "p", "i", "d"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Plant     string             `json:"plant"`
	Backend   string             `json:"backend"`
	Timestamp time.Time          `json:"timestamp"`
	Steps     int                `json:"steps"`
	Config    config.Config      `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
	Step      *analysis.StepInfo `json:"step,omitempty"`
}

// TracePoint is one row of a recorded run.
type TracePoint struct {
	Time     float64 `json:"t"`
	Measured float64 `json:"measured"`
	Setpoint float64 `json:"setpoint"`
	Output   float64 `json:"output"`
	P        float64 `json:"p"`
	I        float64 `json:"i"`
	D        float64 `json:"d"`
}

func (p TracePoint) values() []float64 {
	return []float64{p.Time, p.Measured, p.Setpoint, p.Output, p.P, p.I, p.D}
}

func TraceFromResult(res *dynamo.Result) []TracePoint {
	trace := make([]TracePoint, len(res.Samples))
	for i, smp := range res.Samples {
		out := smp.Trace.Output
		if len(smp.Control) > 0 {
			out = smp.Control[0]
		}
		trace[i] = TracePoint{
			Time:     smp.Time,
			Measured: smp.Measured,
			Setpoint: smp.Trace.Setpoint,
			Output:   out,
			P:        smp.Trace.P,
			I:        smp.Trace.I,
			D:        smp.Trace.D,
		}
	}
	return trace
}

// Save writes the run under a new ID. step may be nil when the run has no
// meaningful step response.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result, step *analysis.StepInfo) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Plant, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Plant:     cfg.Plant,
		Backend:   cfg.Backend,
		Timestamp: now,
		Steps:     result.StepsTaken,
		Config:    *cfg,
		Metrics:   result.Metrics,
		Step:      step,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, TraceFromResult(result)); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]TracePoint, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

func WriteCSV(w io.Writer, trace []TracePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}

	row := make([]string, len(traceHeader))
	for _, p := range trace {
		for i, v := range p.values() {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]TracePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(traceHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTrace, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTrace)
	}

	trace := make([]TracePoint, 0, len(records)-1)
	for line, record := range records[1:] {
		var v [7]float64
		for i, field := range record {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %w", ErrMalformedTrace, line+1, err)
			}
			v[i] = f
		}
		trace = append(trace, TracePoint{
			Time: v[0], Measured: v[1], Setpoint: v[2], Output: v[3],
			P: v[4], I: v[5], D: v[6],
		})
	}
	return trace, nil
}
