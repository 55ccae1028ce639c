package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const schemaVer = "ohlcv_v1"
const catalogFile = "catalog.json"

// Dataset describes one catalogued OHLCV file.
type Dataset struct {
	// ID is a UUID assigned by Register.
	ID string `json:"id"`
	// Name is a human-readable label, e.g. "AAPL_2023".
	Name string `json:"name"`
	// Symbol is the primary ticker, e.g. "AAPL".
	Symbol string `json:"symbol"`
	// Source describes the origin: "csv" is the only one this package loads.
	Source string `json:"source"`
	// StartDate / EndDate are the inclusive date range of the data.
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// FilePath is the path to the OHLCV CSV file, absolute or CWD-relative.
	FilePath string `json:"file_path"`
	// Hash is the SHA-256 hex digest of the file content at registration.
	Hash string `json:"hash"`
	// SchemaVer is the CSV schema version string.
	SchemaVer string `json:"schema_ver"`
	// CreatedAt is when Register was called.
	CreatedAt time.Time `json:"created_at"`
	// RecordCount is the number of bar rows found in the file.
	RecordCount int `json:"record_count"`
}

// Registry is a thread-safe store of Dataset records persisted as JSON in a
// directory on disk. File reads go through a circuit breaker so a run of
// corrupt or vanished source files trips open rather than hammering a
// failing filesystem or network mount on every window of a walk-forward
// sweep.
type Registry struct {
	mu         sync.RWMutex
	catalogDir string
	datasets   map[string]Dataset

	breaker *gobreaker.CircuitBreaker[*CSVDataSource]
}

// Open loads (or creates) a Registry backed by catalogDir. The directory is
// created if it does not exist.
func Open(catalogDir string) (*Registry, error) {
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("dataset.Open: mkdir %q: %w", catalogDir, err)
	}

	r := &Registry{
		catalogDir: catalogDir,
		datasets:   make(map[string]Dataset),
	}
	r.breaker = gobreaker.NewCircuitBreaker[*CSVDataSource](gobreaker.Settings{
		Name:        "dataset.load",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= 5 || failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[dataset:breaker] %s: %s -> %s", name, from, to)
		},
	})

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates the CSV file at d.FilePath, computes its SHA-256 hash,
// assigns a UUID, and persists the entry to the catalog. An error is
// returned if the file does not exist or Name is already registered.
func (r *Registry) Register(d Dataset) (Dataset, error) {
	if d.Name == "" {
		return Dataset{}, fmt.Errorf("dataset.Register: Name must not be empty")
	}
	if d.Symbol == "" {
		return Dataset{}, fmt.Errorf("dataset.Register: Symbol must not be empty")
	}
	if d.FilePath == "" {
		return Dataset{}, fmt.Errorf("dataset.Register: FilePath must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.datasets {
		if existing.Name == d.Name {
			return Dataset{}, fmt.Errorf("dataset.Register: name %q already registered (id=%s)", d.Name, existing.ID)
		}
	}

	hash, count, err := hashAndCount(d.FilePath)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset.Register: file %q: %w", d.FilePath, err)
	}

	d.ID = uuid.New().String()
	d.Hash = hash
	d.RecordCount = count
	d.SchemaVer = schemaVer
	d.CreatedAt = time.Now().UTC()
	if d.Source == "" {
		d.Source = "csv"
	}

	r.datasets[d.ID] = d

	if err := r.save(); err != nil {
		delete(r.datasets, d.ID)
		return Dataset{}, fmt.Errorf("dataset.Register: persist: %w", err)
	}

	log.Printf("[dataset] registered name=%q id=%s symbol=%s records=%d hash=%s",
		d.Name, d.ID, d.Symbol, d.RecordCount, d.Hash[:12])

	return d, nil
}

// Get returns the Dataset with the given ID.
func (r *Registry) Get(id string) (Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datasets[id]
	if !ok {
		return Dataset{}, fmt.Errorf("dataset.Get: id %q not found", id)
	}
	return d, nil
}

// GetByName returns the first Dataset whose Name matches.
func (r *Registry) GetByName(name string) (Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, fmt.Errorf("dataset.GetByName: %q not found", name)
}

// List returns all Datasets sorted by CreatedAt ascending.
func (r *Registry) List() []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Dataset) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Remove deletes a Dataset entry from the catalog. It does not delete the
// underlying data file.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return fmt.Errorf("dataset.Remove: id %q not found", id)
	}
	delete(r.datasets, id)
	return r.save()
}

// VerifyHash re-computes the file hash and returns an error if it has
// changed since registration, which would invalidate the reproducibility
// of any run recorded against this dataset ID.
func (r *Registry) VerifyHash(id string) error {
	d, err := r.Get(id)
	if err != nil {
		return err
	}

	hash, _, err := hashAndCount(d.FilePath)
	if err != nil {
		return fmt.Errorf("dataset.VerifyHash: %w", err)
	}
	if hash != d.Hash {
		return fmt.Errorf("dataset.VerifyHash: id=%s file content has changed (registered=%s current=%s)",
			id, d.Hash[:12], hash[:12])
	}
	return nil
}

// LoadDataSource opens a registered CSV dataset as a BarSource, routed
// through the registry's circuit breaker. The file hash is not re-verified
// here for performance; call VerifyHash first if strict reproducibility is
// required.
func (r *Registry) LoadDataSource(ctx context.Context, id string) (*CSVDataSource, error) {
	d, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return r.breaker.Execute(func() (*CSVDataSource, error) {
		return LoadCSV(d.FilePath, d.Symbol)
	})
}

func (r *Registry) catalogPath() string {
	return filepath.Join(r.catalogDir, catalogFile)
}

func (r *Registry) load() error {
	path := r.catalogPath()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dataset: open catalog %q: %w", path, err)
	}
	defer f.Close()

	var list []Dataset
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return fmt.Errorf("dataset: decode catalog: %w", err)
	}
	for _, d := range list {
		r.datasets[d.ID] = d
	}
	return nil
}

func (r *Registry) save() error {
	list := make([]Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		list = append(list, d)
	}
	slices.SortFunc(list, func(a, b Dataset) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	tmp := r.catalogPath() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("dataset: create catalog tmp: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("dataset: encode catalog: %w", err)
	}
	f.Close()

	if err := os.Rename(tmp, r.catalogPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("dataset: rename catalog: %w", err)
	}
	return nil
}

// hashAndCount reads the file, computes its SHA-256 hex digest, and counts
// the number of non-header CSV rows.
func hashAndCount(filePath string) (hash string, count int, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	r := csv.NewReader(io.TeeReader(f, h))

	if _, err := r.Read(); err != nil {
		return "", 0, fmt.Errorf("read CSV header: %w", err)
	}

	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, err
		}
		count++
	}

	return hex.EncodeToString(h.Sum(nil)), count, nil
}
