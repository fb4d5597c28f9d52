// Package crypto provides the cryptographic primitives behind SecureXChat
// message envelopes, local key custody and directory attestation.
//
// # Algorithm Suite
//
//   - RSA-2048 with RSA-OAEP (SHA-256, empty label): per-account key pairs
//     used to encrypt short message payloads. One OAEP block carries at most
//     [MaxPlaintextSize] bytes.
//
//   - RSASSA-PKCS1-v1_5 with SHA-256: optional envelope signatures made with
//     the sender's account key.
//
//   - ML-DSA-65 (NIST FIPS 204): relay attestations over directory entries,
//     verified by clients against a pinned relay key.
//
//   - Argon2id + ChaCha20-Poly1305: passphrase sealing for private keys kept
//     on disk.
//
// # Encodings
//
// Account keys travel as standard base64: public keys as PKIX (SPKI) DER and
// private keys as PKCS#8 DER. Ciphertexts and envelope signatures use
// standard base64 too. Relay attestations and sealed files use URL-safe
// base64 without padding.
//
// # Key Management
//
// Private keys never leave the device except through an explicit export.
// They should never be logged or written to the directory.
package crypto
