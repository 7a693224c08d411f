// Package metadata decodes the ECMA-335 metadata streams: the #Strings and
// #Blob heaps and the compressed #~ table stream.
//
// The table stream is a packed sequence of fixed-width rows whose column
// widths depend on the HeapSizes flags and on other tables' row counts, so
// the full schema of all 45 defined tables is resolved in a single
// left-to-right pass before any row is read. Only the TypeRef, MemberRef and
// CustomAttribute tables are materialized; everything else is skipped by its
// computed byte width.
//
// All decoding is bounds-checked against the stream a value lives in; a
// declared layout that disagrees with the recorded stream size fails as
// MalformedTableStream because no offset past the inconsistency can be
// trusted.
package metadata
