package provenance

import (
	"go.uber.org/zap"

	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/metadata"
	"github.com/provtools/asmmeta/pecoff"
)

// Metadata stream names consumed by extraction.
const (
	streamTables  = "#~"
	streamStrings = "#Strings"
	streamBlob    = "#Blob"
)

// Extract reads the repository URL and commit hash recorded in the metadata
// of one compiled assembly. data is the complete file image; it is never
// executed or mutated.
//
// Structural failures in the container or the table stream abort with a nil
// result. Absent or partial provenance is a terminal state, not a parse
// failure: the returned error then carries KindNoMetadata or
// KindIncompleteMetadata and the result still holds whatever resolved, for
// diagnostic use.
func Extract(data []byte) (*Result, error) {
	img, err := pecoff.Locate(data)
	if err != nil {
		return nil, err
	}
	Logger().Debug("located metadata root",
		zap.String("version", img.MetadataVersion),
		zap.Int("streams", len(img.Streams)))

	tables, ok := img.Stream(streamTables)
	if !ok {
		return nil, errors.MalformedTableStream("no %s stream", streamTables)
	}
	ts, err := metadata.ParseTableStream(tables)
	if err != nil {
		return nil, err
	}

	// Missing heaps degrade to empty ones: every per-row lookup then fails
	// and is skipped, which is the local-failure policy, not a fatal one.
	strData, _ := img.Stream(streamStrings)
	blobData, _ := img.Stream(streamBlob)

	c := resolveCandidates(ts, metadata.NewStringHeap(strData), metadata.NewBlobHeap(blobData))

	result := &Result{}
	result.RepositoryURL, _ = evaluate(repositoryRules, c)
	result.CommitSHA, _ = evaluate(commitRules, c)

	switch {
	case result.Complete():
		return result, nil
	case result.RepositoryURL == "" && result.CommitSHA == "":
		return result, errors.NoMetadata()
	case result.CommitSHA == "":
		return result, errors.IncompleteMetadata("commit hash")
	default:
		return result, errors.IncompleteMetadata("repository URL")
	}
}
