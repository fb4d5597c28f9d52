// Package relay implements the HTTP relay that hosts the public key
// directory and the per-conversation message logs.
//
// The relay only ever sees public keys and ciphertext. It assigns message
// creation times, attests directory lookups when given a signer, and
// deletes expired disappearing messages through its Store.
package relay
