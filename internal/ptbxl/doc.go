// Package ptbxl models the PTB-XL metadata: the per-recording database table
// (ptbxl_database.csv), the SCP-ECG statement table (scp_statements.csv) and
// the diagnostic labels derived by joining the two.
//
// Records are read once and treated as immutable. Transforms such as
// ScaleAges return copies.
package ptbxl
