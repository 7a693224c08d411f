// Package asmmeta extracts source provenance — a repository URL and a
// commit hash — from compiled .NET assemblies without loading, linking or
// executing them.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	asmmeta/             Root package with the Extract convenience entry point
//	├── pecoff/          PE/COFF container walking and metadata root location
//	├── metadata/        Heap and table-stream decoding (ECMA-335 II.24)
//	├── provenance/      Attribute resolution and the fallback policy
//	└── errors/          Structured error types with phase/kind taxonomy
//
// # Quick Start
//
// Extract provenance from an assembly on disk:
//
//	data, err := os.ReadFile("MyLib.dll")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := asmmeta.Extract(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.RepositoryURL, result.CommitSHA)
//
// # Failure Model
//
// Structural failures (a file that is not a PE image, an image without
// managed metadata, an inconsistent table stream) abort extraction. Absent
// provenance is not a structural failure: extraction returns a result with
// KindNoMetadata or KindIncompleteMetadata so callers can distinguish "not
// an assembly" from "an assembly that recorded nothing". The library never
// prints, never exits and performs no I/O beyond the byte slice it is
// given.
package asmmeta
