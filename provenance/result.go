package provenance

// Result carries the two provenance facts extracted from an assembly.
// A field is empty when the corresponding value could not be resolved;
// partial results accompany an IncompleteMetadata error so callers can
// still show what was found.
type Result struct {
	RepositoryURL string `json:"repositoryUrl,omitempty"`
	CommitSHA     string `json:"commitSha,omitempty"`
}

// Complete reports whether both provenance values resolved.
func (r *Result) Complete() bool {
	return r.RepositoryURL != "" && r.CommitSHA != ""
}
