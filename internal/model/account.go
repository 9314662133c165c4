package model

import "time"

// Account is a login account's stored credential material and metadata.
// Salt and Verifier are SRP-6 parameters (§4.1): Verifier is never
// transmitted and the plaintext password is never stored.
type Account struct {
	Login       string
	Salt        [32]byte
	Verifier    []byte // little-endian, SRP-6 password verifier v = g^x mod N
	AccessLevel int
	LastIP      string
	LastActive  time.Time
}
