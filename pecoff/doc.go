// Package pecoff locates the ECMA-335 metadata root inside a PE/COFF image.
//
// The locator validates the outer container (DOS stub, PE signature, COFF
// and optional headers), follows data directory 14 to the CLI header, maps
// the metadata RVA through the section table and reads the metadata root's
// stream directory. Nothing in the image is executed or relocated; the
// package performs pointer arithmetic over an immutable byte slice only.
//
// Failure taxonomy: a file that is not a structurally consistent PE image
// fails with KindInvalidContainer; a well-formed native image without CLI
// metadata fails with KindNotManaged.
package pecoff
