package asmmeta_test

import (
	"testing"

	"github.com/provtools/asmmeta"
	"github.com/provtools/asmmeta/internal/testpe"
)

func TestExtract(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{
			{Key: "RepositoryUrl", Value: "https://host/org/repo"},
			{Key: "CommitHash", Value: "abcd1234567890abcd1234567890abcd12345678"},
		},
	})
	result, err := asmmeta.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Complete() {
		t.Errorf("expected complete result, got %+v", result)
	}
}
