package crypto

const (
	// RSAKeyBits is the modulus size for account key pairs.
	RSAKeyBits = 2048

	// OAEPHashSize is the SHA-256 digest size used by OAEP padding.
	OAEPHashSize = 32

	// MaxPlaintextSize is the largest plaintext that fits a single OAEP block
	// under a RSAKeyBits modulus: k - 2*hLen - 2.
	MaxPlaintextSize = RSAKeyBits/8 - 2*OAEPHashSize - 2

	// EnvelopeSignatureContext separates envelope signatures from any other
	// use of the account key.
	EnvelopeSignatureContext = "securexchat:envelope:v1"

	// DirectoryAttestationContext separates directory attestations from
	// other ML-DSA-65 signatures made with the relay key.
	DirectoryAttestationContext = "securexchat:directory:v1"

	// MLDSAPublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSAPublicKeySize = 1952
	// MLDSASignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSASignatureSize = 3309
	// MLDSASeedSize is the size of the seed an ML-DSA-65 key is derived from.
	MLDSASeedSize = 32

	// SealKeySize is the ChaCha20-Poly1305 key size derived by Argon2id.
	SealKeySize = 32
	// SealSaltSize is the Argon2id salt size.
	SealSaltSize = 16

	// Argon2id cost parameters for sealing local key files.
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// SealKDF names the key derivation recorded in sealed files.
const SealKDF = "argon2id"
