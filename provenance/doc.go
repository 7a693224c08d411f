// Package provenance extracts the repository URL and commit hash recorded
// in a compiled .NET assembly's metadata.
//
// The resolver walks the assembly-level custom attributes, resolving each
// constructor token through the MemberRef and TypeRef tables to a
// namespace-qualified attribute name. Two attribute kinds matter:
// AssemblyMetadata key/value pairs and the AssemblyInformationalVersion
// string; everything else is ignored. A malformed attribute blob skips that
// row only.
//
// Two independent fallback chains then pick the final values:
//
//	repository URL: RepositoryUrl pair, else the SourceCommitUrl pair
//	                truncated before its "/tree/" path segment
//	commit hash:    CommitHash pair, else the informational version's
//	                suffix after "+" when it is a full 40-hex-digit hash
//
// Both values resolved is success; neither is NoMetadata; exactly one is
// IncompleteMetadata with the resolved value still attached to the result.
package provenance
