package authserver

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/aethermoor/internal/config"
	"github.com/udisondev/aethermoor/internal/crypto"
	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// fakeAccountRepository is an in-memory AccountRepository for handler tests.
type fakeAccountRepository struct {
	accounts map[string]*model.Account
	sessions map[string][]byte
	lastIP   map[string]string
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{
		accounts: make(map[string]*model.Account),
		sessions: make(map[string][]byte),
		lastIP:   make(map[string]string),
	}
}

func (f *fakeAccountRepository) AccountByName(_ context.Context, name string) (*model.Account, error) {
	return f.accounts[name], nil
}

func (f *fakeAccountRepository) UpdateLastLogin(_ context.Context, name, ip string) error {
	f.lastIP[name] = ip
	return nil
}

func (f *fakeAccountRepository) StoreSession(_ context.Context, accountName string, sessionKey []byte) error {
	f.sessions[accountName] = sessionKey
	return nil
}

// leBytes mirrors crypto's unexported little-endian wire encoding helper, so
// these tests can play the client side of the SRP exchange without
// reaching into the crypto package's internals.
var srpN = mustHex("894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7")
var srpG = big.NewInt(7)

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("bad hex constant")
	}
	return v
}

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

// clientEphemeral computes A = g^a mod N for a fixed test exponent a.
func clientEphemeral() []byte {
	a := big.NewInt(0x12345)
	A := new(big.Int).Exp(srpG, a, srpN)
	return leBytes(A, crypto.KeyLength)
}

func testClient(t *testing.T) *Client {
	t.Helper()
	c := &Client{ip: "10.0.0.1", state: StateInit}
	return c
}

func TestHandleChallengeUnknownAccount(t *testing.T) {
	repo := newFakeAccountRepository()
	h := NewHandler(repo, nil)
	client := testClient(t)
	buf := make([]byte, 256)

	body := append([]byte("ghost"), 0)
	n, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginChallenge, body, buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, protocol.OpLoginChallenge, buf[0])
	assert.Equal(t, byte(protocol.LoginFailUnknownAccount), buf[1])
	assert.Equal(t, StateClosed, client.State())
}

func TestHandleChallengeWrongState(t *testing.T) {
	repo := newFakeAccountRepository()
	h := NewHandler(repo, nil)
	client := testClient(t)
	client.SetState(StateSentChallenge)
	buf := make([]byte, 256)

	n, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginChallenge, append([]byte("x"), 0), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}

func TestHandleChallengeSuccess(t *testing.T) {
	salt, err := crypto.NewSalt()
	require.NoError(t, err)
	verifier := crypto.MakeVerifier(salt, "player1", "hunter2")

	repo := newFakeAccountRepository()
	repo.accounts["player1"] = &model.Account{Login: "player1", Salt: salt, Verifier: verifier}

	h := NewHandler(repo, nil)
	client := testClient(t)
	buf := make([]byte, 256)

	body := append([]byte("player1"), 0)
	n, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginChallenge, body, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateSentChallenge, client.State())
	assert.Equal(t, protocol.OpLoginChallenge, buf[0])
	assert.Equal(t, byte(0), buf[1]) // SUCCESS
	assert.Greater(t, n, 2+crypto.KeyLength)

	b, B := client.Challenge()
	assert.Len(t, b, 19)
	assert.Len(t, B, crypto.KeyLength)
}

func TestHandshakeEndToEnd(t *testing.T) {
	salt, err := crypto.NewSalt()
	require.NoError(t, err)
	const name = "player1"
	const password = "hunter2"
	verifier := crypto.MakeVerifier(salt, name, password)

	repo := newFakeAccountRepository()
	repo.accounts[name] = &model.Account{Login: name, Salt: salt, Verifier: verifier}

	h := NewHandler(repo, []config.RealmEntry{{Name: "Aethermoor", Host: "127.0.0.1", Port: 8085}})
	client := testClient(t)
	buf := make([]byte, 256)

	_, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginChallenge,
		append([]byte(name), 0), buf)
	require.NoError(t, err)
	require.True(t, ok)

	b, _ := client.Challenge()
	A := clientEphemeral()

	sess, err := crypto.SessionKey(A, b, verifier)
	require.NoError(t, err)
	m1 := crypto.ClientProof(salt[:], sess.A, sess.B, sess.K, name)

	proofBody := make([]byte, 0, crypto.KeyLength+20+20+1)
	proofBody = append(proofBody, A...)
	proofBody = append(proofBody, m1...)
	proofBody = append(proofBody, make([]byte, 21)...) // checksum + key-count, unused

	n, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginProof, proofBody, buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateSentProof, client.State())
	assert.Equal(t, protocol.OpLoginProof, buf[0])
	assert.Equal(t, byte(protocol.LoginSuccess), buf[1])
	assert.Equal(t, 2+20+4, n)
	assert.NotNil(t, client.SessionKey())
	assert.Equal(t, client.SessionKey(), repo.sessions[name])

	// REALMLIST is independent of handshake state.
	n, ok, err = h.HandlePacket(context.Background(), client, protocol.OpRealmList, make([]byte, 4), buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, protocol.OpRealmList, buf[0])
	assert.Greater(t, n, 5)
}

func TestHandshakeWrongPassword(t *testing.T) {
	salt, err := crypto.NewSalt()
	require.NoError(t, err)
	const name = "player1"
	verifier := crypto.MakeVerifier(salt, name, "correct-password")

	repo := newFakeAccountRepository()
	repo.accounts[name] = &model.Account{Login: name, Salt: salt, Verifier: verifier}

	h := NewHandler(repo, nil)
	client := testClient(t)
	buf := make([]byte, 256)

	_, _, err = h.HandlePacket(context.Background(), client, protocol.OpLoginChallenge, append([]byte(name), 0), buf)
	require.NoError(t, err)

	b, _ := client.Challenge()
	A := clientEphemeral()
	sess, err := crypto.SessionKey(A, b, verifier)
	require.NoError(t, err)

	// M1 computed against the wrong password's implied verifier state:
	// corrupt a single byte to simulate a client that guessed wrong.
	badM1 := crypto.ClientProof(salt[:], sess.A, sess.B, sess.K, name)
	badM1[0] ^= 0xFF

	proofBody := make([]byte, 0, crypto.KeyLength+20+20+1)
	proofBody = append(proofBody, A...)
	proofBody = append(proofBody, badM1...)
	proofBody = append(proofBody, make([]byte, 21)...)

	n, ok, err := h.HandlePacket(context.Background(), client, protocol.OpLoginProof, proofBody, buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(protocol.LoginFailIncorrectPass), buf[1])
	assert.Equal(t, StateClosed, client.State())
}
