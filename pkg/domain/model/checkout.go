package model

// Checkout represents an extracted source archive ready to be used as a
// container build context.
type Checkout struct {
	TempDir    string   // Root temporary directory holding the extraction
	ContextDir string   // Directory used as the build context (the archive's top-level dir)
	Files      []string // List of extracted files
	Size       int64    // Total uncompressed size in bytes
}
