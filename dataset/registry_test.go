package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tthiemann260-coder/apex-backtest-sub000/dataset"
)

func writeTempCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeTempCSV: %v", err)
	}
	return path
}

const sampleCSV = `date,open,high,low,close,volume
2024-01-02,150.00,155.00,148.00,153.00,1000000
2024-01-03,153.00,158.00,151.00,156.00,1200000
2024-01-04,156.00,160.00,154.00,157.00,900000
2024-01-05,157.00,161.00,155.00,159.00,1100000
2024-01-08,159.00,163.00,157.00,162.00,1050000
`

func TestOpenCreatesDir(t *testing.T) {
	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "new", "registry")
	_, err := dataset.Open(catalogDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(catalogDir); err != nil {
		t.Fatalf("catalog dir not created: %v", err)
	}
}

func TestRegisterAndGet(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)

	reg, err := dataset.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	d, err := reg.Register(dataset.Dataset{
		Name:     "AAPL_2024_test",
		Symbol:   "AAPL",
		FilePath: csvPath,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected a UUID to be assigned")
	}
	if d.RecordCount != 5 {
		t.Fatalf("RecordCount = %d, want 5", d.RecordCount)
	}
	if d.Source != "csv" {
		t.Fatalf("Source = %q, want default %q", d.Source, "csv")
	}

	got, err := reg.Get(d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Hash != d.Hash {
		t.Fatalf("Get returned a different hash than Register")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)
	reg, _ := dataset.Open(dir)

	if _, err := reg.Register(dataset.Dataset{Name: "dup", Symbol: "AAPL", FilePath: csvPath}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := reg.Register(dataset.Dataset{Name: "dup", Symbol: "AAPL", FilePath: csvPath}); err == nil {
		t.Fatalf("expected an error registering a duplicate name")
	}
}

func TestRegisterRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	reg, _ := dataset.Open(dir)

	if _, err := reg.Register(dataset.Dataset{Name: "missing", Symbol: "AAPL", FilePath: filepath.Join(dir, "nope.csv")}); err == nil {
		t.Fatalf("expected an error for a nonexistent file")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)

	reg1, _ := dataset.Open(dir)
	d, err := reg1.Register(dataset.Dataset{Name: "AAPL_2024", Symbol: "AAPL", FilePath: csvPath})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	reg2, err := dataset.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reg2.Get(d.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Name != "AAPL_2024" {
		t.Fatalf("Name = %q after reopen, want AAPL_2024", got.Name)
	}
}

func TestVerifyHashDetectsMutation(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)
	reg, _ := dataset.Open(dir)

	d, err := reg.Register(dataset.Dataset{Name: "AAPL_2024", Symbol: "AAPL", FilePath: csvPath})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.VerifyHash(d.ID); err != nil {
		t.Fatalf("VerifyHash on untouched file: %v", err)
	}

	if err := os.WriteFile(csvPath, []byte(sampleCSV+"2024-01-09,162.00,165.00,160.00,163.00,800000\n"), 0o644); err != nil {
		t.Fatalf("mutate file: %v", err)
	}
	if err := reg.VerifyHash(d.ID); err == nil {
		t.Fatalf("expected VerifyHash to detect the mutation")
	}
}

func TestListSortedByCreatedAt(t *testing.T) {
	dir := t.TempDir()
	csvA := writeTempCSV(t, dir, "a.csv", sampleCSV)
	csvB := writeTempCSV(t, dir, "b.csv", sampleCSV)
	reg, _ := dataset.Open(dir)

	da, _ := reg.Register(dataset.Dataset{Name: "a", Symbol: "AAPL", FilePath: csvA})
	db, _ := reg.Register(dataset.Dataset{Name: "b", Symbol: "AAPL", FilePath: csvB})

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List length = %d, want 2", len(list))
	}
	if !(list[0].CreatedAt.Before(list[1].CreatedAt) || list[0].CreatedAt.Equal(list[1].CreatedAt)) {
		t.Fatalf("List not sorted by CreatedAt")
	}
	_ = da
	_ = db
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)
	reg, _ := dataset.Open(dir)

	d, _ := reg.Register(dataset.Dataset{Name: "AAPL_2024", Symbol: "AAPL", FilePath: csvPath})
	if err := reg.Remove(d.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := reg.Get(d.ID); err == nil {
		t.Fatalf("expected Get to fail after Remove")
	}
}

func TestLoadDataSourceProducesBars(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)
	reg, _ := dataset.Open(dir)

	d, err := reg.Register(dataset.Dataset{Name: "AAPL_2024", Symbol: "AAPL", FilePath: csvPath})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	ds, err := reg.LoadDataSource(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("LoadDataSource: %v", err)
	}
	if ds.Len() != 5 {
		t.Fatalf("Len = %d, want 5", ds.Len())
	}

	count := 0
	for {
		bar, ok := ds.Next()
		if !ok {
			break
		}
		if bar.Symbol != "AAPL" {
			t.Fatalf("bar symbol = %q, want AAPL", bar.Symbol)
		}
		count++
	}
	if count != 5 {
		t.Fatalf("Next() yielded %d bars, want 5", count)
	}

	ds.Reset()
	if _, ok := ds.Next(); !ok {
		t.Fatalf("expected Next() to yield again after Reset")
	}
}

func TestLoadDataSourceDropsZeroVolumeBars(t *testing.T) {
	dir := t.TempDir()
	csv := sampleCSV + "2024-01-09,163.00,166.00,161.00,164.00,0\n"
	csvPath := writeTempCSV(t, dir, "aapl.csv", csv)

	ds, err := dataset.LoadCSV(csvPath, "AAPL")
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Len() != 5 {
		t.Fatalf("Len = %d, want 5 (zero-volume row dropped)", ds.Len())
	}
}

func TestBarsFiltersByDateRange(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, dir, "aapl.csv", sampleCSV)

	ds, err := dataset.LoadCSV(csvPath, "AAPL")
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	start := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	bars, err := ds.Bars(context.Background(), "AAPL", start, time.Time{})
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("Bars(start=2024-01-04) = %d, want 3", len(bars))
	}
}
