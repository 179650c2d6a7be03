// Package compressor implements the Compressor capability the mapper's
// codec pipeline optionally applies between serialization and encryption.
package compressor

// Compressor compresses and decompresses opaque byte strings. Decompress
// must invert Compress exactly for any input Compress produced.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
