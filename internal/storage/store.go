// Package storage persists simulation runs. FileStore keeps one directory per
// run; SQLiteStore keeps every run in a single database file.
package storage

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/san-kum/bugsim/internal/dynamo"
	"github.com/san-kum/bugsim/internal/model"
)

var (
	ErrNotFound    = errors.New("storage: run not found")
	ErrUnknownKind = errors.New("storage: unknown store kind")
)

type Store interface {
	Init() error
	Save(info RunInfo, result *dynamo.Result) (string, error)
	List() ([]RunMetadata, error)
	Load(runID string) (*RunMetadata, error)
	LoadStates(runID string) ([][]float64, []float64, error)
	Close() error
}

// RunInfo describes how a run was produced.
type RunInfo struct {
	Model      string
	Integrator string
	Preset     string
	Dt         float64
	Duration   float64
	Adaptive   bool
	Params     model.Params
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Preset     string             `json:"preset,omitempty"`
	Adaptive   bool               `json:"adaptive"`
	Steps      int                `json:"steps"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
}

func newMetadata(id string, info RunInfo, result *dynamo.Result) RunMetadata {
	return RunMetadata{
		ID:         id,
		Model:      info.Model,
		Timestamp:  time.Now(),
		Dt:         info.Dt,
		Duration:   info.Duration,
		Integrator: info.Integrator,
		Preset:     info.Preset,
		Adaptive:   info.Adaptive,
		Steps:      result.StepsTaken,
		Params:     info.Params.Map(),
		Metrics:    result.Metrics,
	}
}

// newRunID returns <model>_<unix seconds>, suffixed with a counter while
// taken reports the id as used.
func newRunID(modelName string, now time.Time, taken func(string) bool) string {
	base := fmt.Sprintf("%s_%d", modelName, now.Unix())
	id := base
	for n := 2; taken(id); n++ {
		id = base + "_" + strconv.Itoa(n)
	}
	return id
}

// Header returns the column names for a state of dimension dim.
func Header(dim int) []string {
	header := []string{"time"}
	if dim == model.NumCompartments {
		return append(header, model.CompartmentNames()...)
	}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	return header
}

// Open returns a store of the given kind rooted at dir.
func Open(kind, dir string, opts ...Option) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(dir, opts...), nil
	case "sqlite":
		return NewSQLiteStore(dir, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
