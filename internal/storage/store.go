// Package storage keeps headless run results on disk: one directory per
// run holding metadata.json and the per-fixed-update samples as CSV.
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
	"sync"
	"time"

	"github.com/san-kum/voxelworld/internal/sim"
)

var ErrUnknownRun = errors.New("storage: unknown run")

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
	Preset    string             `json:"preset"`
	Generator string             `json:"generator"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	ChunkSize int                `json:"chunk_size"`
	Ticks     uint64             `json:"ticks"`
	Elapsed   time.Duration      `json:"elapsed"`
	Device    string             `json:"device"`
	Metrics   map[string]float64 `json:"metrics"`
}

var sampleHeader = []string{"tick", "fixed_ms", "quantity", "chunks", "active", "particles", "objects", "evicted", "colliders"}

// Save writes meta and samples under a fresh run id and returns it.
func (s *Store) Save(meta RunMetadata, samples []sim.Sample) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	name := meta.Preset
	if name == "" {
		name = meta.Generator
	}
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := writeSamples(csvFile, samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeSamples(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatUint(smp.Tick, 10),
			strconv.FormatFloat(float64(smp.Fixed)/float64(time.Millisecond), 'f', 4, 64),
			strconv.FormatFloat(smp.Quantity, 'f', 4, 64),
			strconv.Itoa(smp.Chunks),
			strconv.Itoa(smp.Active),
			strconv.Itoa(smp.Particles),
			strconv.Itoa(smp.Objects),
			strconv.Itoa(smp.Evicted),
			strconv.Itoa(smp.Colliders),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, i+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	var smp sim.Sample
	var err error
	if smp.Tick, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return smp, err
	}
	ms, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return smp, err
	}
	smp.Fixed = time.Duration(ms * float64(time.Millisecond))
	if smp.Quantity, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return smp, err
	}
	ints := []*int{&smp.Chunks, &smp.Active, &smp.Particles, &smp.Objects, &smp.Evicted, &smp.Colliders}
	for i, dst := range ints {
		if *dst, err = strconv.Atoi(rec[3+i]); err != nil {
			return smp, err
		}
	}
	return smp, nil
}

type exportData struct {
	RunMetadata
	Samples []sim.Sample `json:"samples"`
}

// ExportJSON writes metadata and samples of a run as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData{RunMetadata: *meta, Samples: samples})
}

// Recorder is a sim.Observer keeping every sample for Save.
type Recorder struct {
	mu      sync.Mutex
	samples []sim.Sample
}

func (r *Recorder) OnSample(s sim.Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *Recorder) Samples() []sim.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sim.Sample(nil), r.samples...)
}
