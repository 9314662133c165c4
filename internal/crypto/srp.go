// Package crypto implements the cryptographic primitives of the auth and
// world protocols: the SRP-6 (legacy, not -6a) login handshake and the
// world-header obfuscation cipher.
package crypto

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"math/big"
	"strings"
)

// KeyLength is the size, in bytes, of N, the verifier, and all ephemeral
// public keys on the wire.
const KeyLength = 32

var (
	// n is the 256-bit safe prime shared by every SRP-6 exchange.
	n = mustBigIntHex("894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7")
	// g is the generator. k is the legacy SRP-6 multiplier (k = 3, not
	// H(N, g) as in SRP-6a).
	g = big.NewInt(7)
	k = big.NewInt(3)
)

func mustBigIntHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("crypto: invalid hex constant: " + s)
	}
	return v
}

// sha1Sum hashes the concatenation of its arguments.
func sha1Sum(parts ...[]byte) []byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// leBytes returns v's magnitude as exactly size little-endian bytes,
// truncating or zero-padding as needed. The wire format for N, verifiers,
// and ephemeral keys is little-endian (§4.1).
func leBytes(v *big.Int, size int) []byte {
	be := v.Bytes()
	out := make([]byte, size)
	n := len(be)
	if n > size {
		n = size
	}
	for i := 0; i < n; i++ {
		out[i] = be[len(be)-1-i]
	}
	return out
}

// leToInt interprets b as a little-endian big integer.
func leToInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	return new(big.Int).SetBytes(be)
}

// upper folds a login/password to uppercase the way the client does before
// hashing; SRP-6 identities and passwords are case-insensitive on this wire.
func upper(s string) string {
	return strings.ToUpper(s)
}

// MakeVerifier computes the SRP-6 password verifier v = g^x mod N, where
// x = H(salt || H(upper(name) || ":" || upper(password))).
func MakeVerifier(salt [32]byte, name, password string) []byte {
	inner := sha1Sum([]byte(upper(name) + ":" + upper(password)))
	x := leToInt(sha1Sum(salt[:], inner))
	v := new(big.Int).Exp(g, x, n)
	return leBytes(v, KeyLength)
}

// ServerChallenge picks a random private ephemeral b and derives the public
// ephemeral B = (k*v + g^b) mod N. It regenerates b if B would be zero mod N.
func ServerChallenge(verifier []byte) (b, B []byte, err error) {
	v := leToInt(verifier)
	for {
		bb := make([]byte, 19)
		if _, err := rand.Read(bb); err != nil {
			return nil, nil, fmt.Errorf("generating server ephemeral: %w", err)
		}
		bi := new(big.Int).SetBytes(bb)

		gb := new(big.Int).Exp(g, bi, n)
		kv := new(big.Int).Mul(k, v)
		Bi := new(big.Int).Mod(new(big.Int).Add(kv, gb), n)
		if Bi.Sign() == 0 {
			continue
		}
		return leBytes(bi, 19), leBytes(Bi, KeyLength), nil
	}
}

// Session holds the derived 40-byte session key alongside the public
// ephemerals it was negotiated from, for use in ClientProof/ServerProof.
type Session struct {
	A []byte
	B []byte
	K []byte // 40 bytes, interleaved SHA-1
}

// SessionKey validates the client's public ephemeral A and derives the
// shared 40-byte session key K. Fails if A mod N == 0 (§4.1).
func SessionKey(aBytes, bBytes, verifier []byte) (*Session, error) {
	A := leToInt(aBytes)
	if new(big.Int).Mod(A, n).Sign() == 0 {
		return nil, fmt.Errorf("srp: invalid client public ephemeral A")
	}
	b := leToInt(bBytes)
	v := leToInt(verifier)

	B := new(big.Int).Mod(new(big.Int).Add(new(big.Int).Mul(k, v), new(big.Int).Exp(g, b, n)), n)

	u := leToInt(sha1Sum(leBytes(A, KeyLength), leBytes(B, KeyLength)))

	// S = (A * v^u)^b mod N
	vu := new(big.Int).Exp(v, u, n)
	avu := new(big.Int).Mod(new(big.Int).Mul(A, vu), n)
	S := new(big.Int).Exp(avu, b, n)

	K := interleavedHash(leBytes(S, KeyLength))

	return &Session{A: leBytes(A, KeyLength), B: leBytes(B, KeyLength), K: K}, nil
}

// interleavedHash derives a 40-byte session key from a 32-byte shared secret
// by splitting it into even/odd indexed bytes, SHA-1 hashing each half, and
// interleaving the two 20-byte digests (§4.1).
func interleavedHash(s []byte) []byte {
	var even, odd []byte
	for i, b := range s {
		if i%2 == 0 {
			even = append(even, b)
		} else {
			odd = append(odd, b)
		}
	}
	he := sha1Sum(even)
	ho := sha1Sum(odd)

	out := make([]byte, 40)
	for i := 0; i < 20; i++ {
		out[2*i] = he[i]
		out[2*i+1] = ho[i]
	}
	return out
}

// ClientProof computes M1 = H(H(N) XOR H(g) || H(upper(name)) || salt || A || B || K).
func ClientProof(salt, A, B, K []byte, name string) []byte {
	hn := sha1Sum(leBytes(n, KeyLength))
	hg := sha1Sum(leBytes(g, 1))
	xor := make([]byte, len(hn))
	for i := range hn {
		xor[i] = hn[i] ^ hg[i]
	}
	hi := sha1Sum([]byte(upper(name)))
	return sha1Sum(xor, hi, salt, A, B, K)
}

// ServerProof computes M2 = H(A || M1 || K).
func ServerProof(A, M1, K []byte) []byte {
	return sha1Sum(A, M1, K)
}

// NBytes returns the shared 256-bit safe prime N as little-endian wire bytes,
// for embedding in the LOGIN_CHALLENGE response.
func NBytes() []byte {
	return leBytes(n, KeyLength)
}

// NewSalt generates a fresh 32-byte account salt.
func NewSalt() ([32]byte, error) {
	var s [32]byte
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("generating salt: %w", err)
	}
	return s, nil
}
