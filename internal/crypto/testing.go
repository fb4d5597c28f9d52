package crypto

import "io"

// SetRandReaderForTesting sets the random reader used for key generation,
// encryption and signing. Returns a function to restore the original reader.
func SetRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}
