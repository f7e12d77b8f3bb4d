// Package files discovers WFDB records on disk and reconciles them with the
// filenames referenced by the PTB-XL database.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data/ptbxl")
//	onDisk, err := discovery.FindRecords(500)
//	report := files.Reconcile(onDisk, referenced)
package files
