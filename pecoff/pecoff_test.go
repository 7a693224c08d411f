package pecoff_test

import (
	"testing"

	"github.com/provtools/asmmeta/errors"
	"github.com/provtools/asmmeta/internal/testpe"
	"github.com/provtools/asmmeta/pecoff"
)

func TestLocateWellFormedImage(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	img, err := pecoff.Locate(data)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if img.Machine != 0x8664 {
		t.Errorf("machine: got %#x", img.Machine)
	}
	if img.PE32Plus {
		t.Error("expected PE32 image")
	}
	if img.MetadataVersion != "v4.0.30319" {
		t.Errorf("metadata version: got %q", img.MetadataVersion)
	}
	for _, name := range []string{"#~", "#Strings", "#GUID", "#Blob"} {
		if _, ok := img.Stream(name); !ok {
			t.Errorf("stream %s missing", name)
		}
	}
	if _, ok := img.Stream("#US"); ok {
		t.Error("unexpected #US stream")
	}
}

func TestLocateArbitraryText(t *testing.T) {
	_, err := pecoff.Locate([]byte("this is not an executable image at all\n"))
	if !errors.IsKind(err, errors.KindInvalidContainer) {
		t.Errorf("expected InvalidContainer, got %v", err)
	}
}

func TestLocateEmptyAndTruncated(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	for _, size := range []int{0, 1, 0x20, 0x40, 0x85, 0x130, 0x1FF} {
		_, err := pecoff.Locate(data[:size])
		if err == nil {
			t.Errorf("truncated to %#x bytes: expected error", size)
		}
	}
}

func TestLocateNotManaged(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	// Zero the CLI data-directory entry (directory 14 of the PE32 optional
	// header at 0x98): a valid native image without managed metadata.
	clrEntry := 0x98 + 96 + 14*8
	for i := 0; i < 8; i++ {
		data[clrEntry+i] = 0
	}
	_, err := pecoff.Locate(data)
	if !errors.IsKind(err, errors.KindNotManaged) {
		t.Errorf("expected NotManaged, got %v", err)
	}
}

func TestLocateBadMetadataSignature(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	// The metadata root begins right after the 72-byte CLI header at 0x200.
	data[0x200+72] = 'X'
	_, err := pecoff.Locate(data)
	if !errors.IsKind(err, errors.KindInvalidContainer) {
		t.Errorf("expected InvalidContainer, got %v", err)
	}
}

func TestLocateMetadataRVAOutsideSections(t *testing.T) {
	data := testpe.Build(testpe.Options{})
	// Point the CLI header's metadata directory at an unmapped RVA.
	cor := 0x200
	data[cor+8] = 0xFF
	data[cor+9] = 0xFF
	data[cor+10] = 0x7F
	_, err := pecoff.Locate(data)
	if !errors.IsKind(err, errors.KindInvalidContainer) {
		t.Errorf("expected InvalidContainer, got %v", err)
	}
}

func TestMachineName(t *testing.T) {
	tests := []struct {
		machine uint16
		want    string
	}{
		{0x14C, "x86"},
		{0x8664, "x64"},
		{0xAA64, "arm64"},
		{0x1234, ""},
	}
	for _, tt := range tests {
		if got := pecoff.MachineName(tt.machine); got != tt.want {
			t.Errorf("MachineName(%#x): got %q, want %q", tt.machine, got, tt.want)
		}
	}
}
