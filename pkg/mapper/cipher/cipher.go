// Package cipher implements the Cipher capability the mapper's codec
// pipeline optionally applies as the last encoding step (and the first
// decoding step), after compression.
package cipher

// Cipher encrypts and decrypts opaque byte strings with an authenticated
// symmetric scheme: Decrypt must reject tampered or corrupt ciphertext
// rather than silently returning garbage.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}
