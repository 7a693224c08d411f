package provenance_test

import (
	"testing"

	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/testpe"
	"github.com/provtools/asmmeta/provenance"
)

const sha = "abcd1234567890abcd1234567890abcd12345678"

func TestExtractBothPairs(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{
			{Key: "RepositoryUrl", Value: "https://host/org/repo"},
			{Key: "CommitHash", Value: sha},
		},
	})
	result, err := provenance.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.RepositoryURL != "https://host/org/repo" {
		t.Errorf("repository: got %q", result.RepositoryURL)
	}
	if result.CommitSHA != sha {
		t.Errorf("commit: got %q", result.CommitSHA)
	}
}

func TestExtractCommitFromInformationalVersion(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs:       []testpe.Pair{{Key: "RepositoryUrl", Value: "https://host/org/repo"}},
		InfoVersion: "1.0.0+" + sha,
	})
	result, err := provenance.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.CommitSHA != sha {
		t.Errorf("commit: got %q", result.CommitSHA)
	}
}

func TestExtractRepositoryFromSourceCommitURL(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{
			{Key: "SourceCommitUrl", Value: "https://host/org/repo/tree/" + sha},
			{Key: "CommitHash", Value: sha},
		},
	})
	result, err := provenance.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.RepositoryURL != "https://host/org/repo" {
		t.Errorf("repository: got %q", result.RepositoryURL)
	}
}

func TestExtractNoMetadata(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	result, err := provenance.Extract(data)
	if !errors.IsKind(err, errors.KindNoMetadata) {
		t.Fatalf("expected NoMetadata, got %v", err)
	}
	if result == nil || result.RepositoryURL != "" || result.CommitSHA != "" {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestExtractIncompleteMetadata(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{{Key: "RepositoryUrl", Value: "https://host/org/repo"}},
	})
	result, err := provenance.Extract(data)
	if !errors.IsKind(err, errors.KindIncompleteMetadata) {
		t.Fatalf("expected IncompleteMetadata, got %v", err)
	}
	if result.RepositoryURL != "https://host/org/repo" {
		t.Errorf("partial result must keep the URL, got %+v", result)
	}
	if result.CommitSHA != "" {
		t.Errorf("unexpected commit: %q", result.CommitSHA)
	}
}

func TestExtractPartialHashNotReturned(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs:       []testpe.Pair{{Key: "RepositoryUrl", Value: "https://host/org/repo"}},
		InfoVersion: "1.0.0+abc123",
	})
	result, err := provenance.Extract(data)
	if !errors.IsKind(err, errors.KindIncompleteMetadata) {
		t.Fatalf("expected IncompleteMetadata, got %v", err)
	}
	if result.CommitSHA != "" {
		t.Errorf("partial hash must be discarded, got %q", result.CommitSHA)
	}
}

func TestExtractNullValueIgnored(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{
			{Key: "RepositoryUrl", NullValue: true},
			{Key: "CommitHash", Value: sha},
		},
	})
	result, err := provenance.Extract(data)
	if !errors.IsKind(err, errors.KindIncompleteMetadata) {
		t.Fatalf("expected IncompleteMetadata, got %v", err)
	}
	if result.CommitSHA != sha {
		t.Errorf("commit: got %q", result.CommitSHA)
	}
}

func TestExtractUnrelatedAttributesIgnored(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{
			{Key: "Serviceable", Value: "True"},
			{Key: "RepositoryUrl", Value: "https://host/org/repo"},
			{Key: "CommitHash", Value: sha},
		},
	})
	result, err := provenance.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Complete() {
		t.Errorf("expected complete result, got %+v", result)
	}
}

func TestExtractArbitraryText(t *testing.T) {
	result, err := provenance.Extract([]byte("definitely not a portable executable"))
	if !errors.IsKind(err, errors.KindInvalidContainer) {
		t.Errorf("expected InvalidContainer, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result on structural failure, got %+v", result)
	}
}

func TestExtractCorruptTableStreamIsFatal(t *testing.T) {
	data := testpe.Build(testpe.Options{
		Pairs: []testpe.Pair{{Key: "RepositoryUrl", Value: "https://host/org/repo"}},
	})
	// Inflate the first declared row count so the layout no longer fits the
	// recorded stream size. The #~ stream body starts 96 bytes into the
	// metadata root, which follows the CLI header at 0x200.
	tableStart := 0x200 + 72 + 96
	data[tableStart+24+2] = 0xFF
	_, err := provenance.Extract(data)
	if !errors.IsKind(err, errors.KindMalformedTableStream) {
		t.Errorf("expected MalformedTableStream, got %v", err)
	}
}
