package asmmeta

import "github.com/provtools/asmmeta/provenance"

// Result is the extraction outcome: the repository URL and commit hash
// recorded in an assembly's metadata.
type Result = provenance.Result

// Extract reads the source provenance of one compiled assembly image.
// See provenance.Extract for the failure semantics.
func Extract(data []byte) (*Result, error) {
	return provenance.Extract(data)
}
