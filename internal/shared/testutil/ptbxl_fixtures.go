package testutil

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"ptbxl/internal/wfdb"
)

// Lead names in PTB-XL storage order
var LeadNames = []string{"I", "II", "III", "AVR", "AVL", "AVF", "V1", "V2", "V3", "V4", "V5", "V6"}

// Fixture waveform layout
const (
	FixtureGain      = 1000.0
	FixtureSamplesLR = 1000
	FixtureSamplesHR = 5000
)

// StatementsCSV is a subset of scp_statements.csv covering the codes used by
// DefaultFixtureRecords
const StatementsCSV = `,description,diagnostic,form,rhythm,diagnostic_class,diagnostic_subclass,Statement Category
NDT,non-diagnostic T abnormalities,1.0,1.0,,STTC,STTC,other ST-T descriptive statements
NORM,normal ECG,1.0,,,NORM,NORM,Normal/abnormal
IMI,inferior myocardial infarction,1.0,,,MI,IMI,Myocardial Infarction
ASMI,anteroseptal myocardial infarction,1.0,,,MI,AMI,Myocardial Infarction
LVH,left ventricular hypertrophy,1.0,,,HYP,LVH,Hypertrophy
LVOLT,low QRS voltages in the frontal and horizontal leads,,1.0,,,,other ST-T descriptive statements
SR,sinus rhythm,,,1.0,,,Statements related to impulse formation
AFIB,atrial fibrillation,,,1.0,,,Statements related to impulse formation
`

// FixtureRecord describes one synthetic recording. Zero Leads, SamplesLR and
// SamplesHR fall back to 12, FixtureSamplesLR and FixtureSamplesHR.
type FixtureRecord struct {
	ECGID     int
	PatientID float64
	Age       float64
	Sex       int
	Height    float64
	Weight    float64
	StratFold int
	SCPCodes  string

	Leads        int
	SamplesLR    int
	SamplesHR    int
	SkipWaveform bool
}

// FixtureDataset is a PTB-XL directory tree written by WritePTBXL
type FixtureDataset struct {
	Root       string
	Database   string
	Statements string
	Records    []FixtureRecord
}

// DefaultFixtureRecords returns four records spread over train, validation
// and test folds. ECG 4 has only rhythm codes and no diagnostic superclass;
// ECG 2 is older than 89 and stored with the age offset.
func DefaultFixtureRecords() []FixtureRecord {
	return []FixtureRecord{
		{ECGID: 1, PatientID: 15709, Age: 56, Sex: 1, Height: math.NaN(), Weight: 63, StratFold: 3,
			SCPCodes: "{'NORM': 100.0, 'LVOLT': 0.0, 'SR': 0.0}"},
		{ECGID: 2, PatientID: 13243, Age: 300, Sex: 0, Height: math.NaN(), Weight: 70, StratFold: 9,
			SCPCodes: "{'IMI': 35.0, 'ASMI': 15.0, 'SR': 0.0}"},
		{ECGID: 3, PatientID: 20372, Age: 37, Sex: 1, Height: 165, Weight: math.NaN(), StratFold: 10,
			SCPCodes: "{'LVH': 100.0, 'NDT': 50.0, 'SR': 0.0}"},
		{ECGID: 4, PatientID: 17014, Age: 24, Sex: 0, Height: math.NaN(), Weight: 82, StratFold: 1,
			SCPCodes: "{'AFIB': 100.0}"},
	}
}

// FixtureFilename returns the PTB-XL relative path of a record, e.g.
// records100/00000/00001_lr
func FixtureFilename(ecgID, samplingRate int) string {
	suffix := "lr"
	if samplingRate == 500 {
		suffix = "hr"
	}
	return fmt.Sprintf("records%d/%05d/%05d_%s", samplingRate, ecgID/1000*1000, ecgID, suffix)
}

// FixtureSample returns the digital value of sample i of lead j of a record.
// Physical value is FixtureSample / FixtureGain.
func FixtureSample(ecgID, lead, i int) int {
	return ecgID*100 + lead*10 + i%7 - 3
}

// WritePTBXL writes a database CSV, a statements CSV and WFDB records at both
// sampling rates under root
func WritePTBXL(t testing.TB, root string, records []FixtureRecord) *FixtureDataset {
	t.Helper()

	ds := &FixtureDataset{
		Root:       root,
		Database:   filepath.Join(root, "ptbxl_database.csv"),
		Statements: filepath.Join(root, "scp_statements.csv"),
		Records:    records,
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("create dataset root: %v", err)
	}
	writeDatabase(t, ds.Database, records)
	if err := os.WriteFile(ds.Statements, []byte(StatementsCSV), 0o644); err != nil {
		t.Fatalf("write statements: %v", err)
	}

	for _, r := range records {
		if r.SkipWaveform {
			continue
		}
		leads := r.Leads
		if leads == 0 {
			leads = len(LeadNames)
		}
		lr, hr := r.SamplesLR, r.SamplesHR
		if lr == 0 {
			lr = FixtureSamplesLR
		}
		if hr == 0 {
			hr = FixtureSamplesHR
		}
		WriteFixtureWaveform(t, root, r.ECGID, 100, leads, lr)
		WriteFixtureWaveform(t, root, r.ECGID, 500, leads, hr)
	}
	return ds
}

// WriteFixtureWaveform writes one format 16 record with the given shape
func WriteFixtureWaveform(t testing.TB, root string, ecgID, samplingRate, leads, samples int) string {
	t.Helper()

	rel := FixtureFilename(ecgID, samplingRate)
	name := filepath.Base(rel)
	h := wfdb.Header{RecordName: name, SamplingFrequency: float64(samplingRate)}
	signals := make([][]int, leads)
	for j := 0; j < leads; j++ {
		lead := fmt.Sprintf("L%d", j+1)
		if j < len(LeadNames) {
			lead = LeadNames[j]
		}
		h.Signals = append(h.Signals, wfdb.SignalSpec{
			FileName:        name + ".dat",
			Format:          wfdb.Format16,
			SamplesPerFrame: 1,
			Gain:            FixtureGain,
			Units:           "mV",
			ADCResolution:   16,
			Description:     lead,
		})
		signals[j] = make([]int, samples)
		for i := range signals[j] {
			signals[j][i] = FixtureSample(ecgID, j, i)
		}
	}

	rec, err := wfdb.NewRecord(h, signals)
	if err != nil {
		t.Fatalf("build waveform %s: %v", rel, err)
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := rec.Write(path); err != nil {
		t.Fatalf("write waveform %s: %v", rel, err)
	}
	return path
}

func writeDatabase(t testing.TB, path string, records []FixtureRecord) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ecg_id", "patient_id", "age", "sex", "height", "weight",
		"report", "scp_codes", "strat_fold", "filename_lr", "filename_hr"}
	if err := w.Write(header); err != nil {
		t.Fatalf("write database header: %v", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.ECGID),
			formatCell(r.PatientID),
			formatCell(r.Age),
			strconv.Itoa(r.Sex),
			formatCell(r.Height),
			formatCell(r.Weight),
			"sinusrhythmus",
			r.SCPCodes,
			strconv.Itoa(r.StratFold),
			FixtureFilename(r.ECGID, 100),
			FixtureFilename(r.ECGID, 500),
		}
		if err := w.Write(row); err != nil {
			t.Fatalf("write database row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush database: %v", err)
	}
}

// formatCell writes floats the way pandas does, NaN as an empty cell
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
