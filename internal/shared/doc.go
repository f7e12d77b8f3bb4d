// Package shared provides common utilities and test helpers used across the
// ptbxl codebase.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A buffered slog handler for asserting on log output
//   - Fixture builders that write a synthetic PTB-XL release (database CSV,
//     statements CSV and WFDB records at 100 and 500 Hz) into a test directory
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    ds := testutil.WritePTBXL(t, t.TempDir(), testutil.DefaultFixtureRecords())
//	    logger, handler := testutil.NewTestLogger(t)
//	    // use ds.Database, ds.Statements and ds.Root
//	}
package shared
