// Package dataset holds the pieces shared by the catalog builder and the batch
// assembler: audio file discovery, directory fingerprints and the error
// taxonomy both of them report through.
package dataset
