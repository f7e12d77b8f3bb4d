package files

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "ptbxl/internal/errors"
)

// Extensions of the two files that make up a single-segment WFDB record
const (
	HeaderExt = ".hea"
	SignalExt = ".dat"
)

// RecordFile is a WFDB record found on disk
type RecordFile struct {
	// Name is the record path relative to the dataset root, slash separated
	// and without extension, as it appears in filename_lr and filename_hr
	Name       string
	HeaderPath string
	// SignalSize is the size of the .dat file, 0 when it is missing
	SignalSize int64
	HasSignal  bool
	ModTime    time.Time
}

// Discovery provides record discovery under a dataset root
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new record discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// RecordsDir returns the directory holding the records at samplingRate,
// e.g. records100
func RecordsDir(samplingRate int) string {
	return fmt.Sprintf("records%d", samplingRate)
}

// FindRecords walks the records directory of samplingRate and returns every
// header found, sorted by name
func (d *Discovery) FindRecords(samplingRate int) ([]RecordFile, error) {
	dir := filepath.Join(d.basePath, RecordsDir(samplingRate))

	var records []RecordFile
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), HeaderExt) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(p, filepath.Ext(p))
		rel, err := filepath.Rel(d.basePath, base)
		if err != nil {
			return err
		}
		rec := RecordFile{
			Name:       filepath.ToSlash(rel),
			HeaderPath: p,
			ModTime:    info.ModTime(),
		}
		if sig, err := os.Stat(base + SignalExt); err == nil && !sig.IsDir() {
			rec.HasSignal = true
			rec.SignalSize = sig.Size()
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to scan records directory", err).WithContext("path", dir)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// Reconciliation compares the records on disk with the database filenames
type Reconciliation struct {
	OnDisk     int
	Referenced int
	// Missing are referenced names without a header on disk
	Missing []string
	// NoSignal are referenced names whose header exists but .dat does not
	NoSignal []string
	// Unreferenced are headers on disk the database does not mention
	Unreferenced []string
}

// Complete reports whether every referenced record is fully present
func (r Reconciliation) Complete() bool {
	return len(r.Missing) == 0 && len(r.NoSignal) == 0
}

// Reconcile matches referenced record names against onDisk. Names are
// compared after path cleaning; empty names are skipped.
func Reconcile(onDisk []RecordFile, referenced []string) Reconciliation {
	byName := make(map[string]RecordFile, len(onDisk))
	for _, r := range onDisk {
		byName[r.Name] = r
	}

	res := Reconciliation{
		OnDisk:       len(onDisk),
		Missing:      []string{},
		NoSignal:     []string{},
		Unreferenced: []string{},
	}
	seen := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		if name == "" {
			continue
		}
		name = path.Clean(filepath.ToSlash(name))
		if seen[name] {
			continue
		}
		seen[name] = true
		res.Referenced++

		rec, ok := byName[name]
		switch {
		case !ok:
			res.Missing = append(res.Missing, name)
		case !rec.HasSignal:
			res.NoSignal = append(res.NoSignal, name)
		}
	}
	for _, r := range onDisk {
		if !seen[r.Name] {
			res.Unreferenced = append(res.Unreferenced, r.Name)
		}
	}
	sort.Strings(res.Missing)
	sort.Strings(res.NoSignal)
	return res
}
