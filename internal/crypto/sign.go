package crypto

import (
	stdcrypto "crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
)

// SignPKCS1v15 signs SHA-256(message) with RSASSA-PKCS1-v1_5.
func SignPKCS1v15(priv *rsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	return rsa.SignPKCS1v15(random(), priv, stdcrypto.SHA256, digest[:])
}

// VerifyPKCS1v15 verifies a signature produced by SignPKCS1v15.
func VerifyPKCS1v15(pub *rsa.PublicKey, message, signature []byte) error {
	digest := sha256.Sum256(message)
	if err := rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest[:], signature); err != nil {
		return ErrSignatureVerificationFailed
	}
	return nil
}

// EnvelopeTranscript builds the byte string an envelope signature covers:
// the context tag followed by each field with a 4-byte big-endian length.
func EnvelopeTranscript(senderID, ciphertextForRecipient, ciphertextForSender string) []byte {
	return transcript(EnvelopeSignatureContext, senderID, ciphertextForRecipient, ciphertextForSender)
}

func transcript(context string, fields ...string) []byte {
	size := len(context)
	for _, f := range fields {
		size += 4 + len(f)
	}
	out := make([]byte, 0, size)
	out = append(out, context...)
	for _, f := range fields {
		out = binary.BigEndian.AppendUint32(out, uint32(len(f)))
		out = append(out, f...)
	}
	return out
}
