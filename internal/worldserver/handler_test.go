package worldserver

import (
	"bytes"
	"context"
	"crypto/sha1"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/aethermoor/internal/crypto"
	"github.com/udisondev/aethermoor/internal/db"
	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// fakeCharacterRepository is an in-memory stand-in for *db.Store, mirroring
// authserver's fakeAccountRepository pattern.
type fakeCharacterRepository struct {
	sessions   map[string][]byte
	characters map[model.GUID]*db.CharacterData
	byName     map[string]model.GUID
	skills     map[model.GUID][]model.Skill
	spells     map[model.GUID][]model.Spell
	nextLow    uint32
}

func newFakeCharacterRepository() *fakeCharacterRepository {
	return &fakeCharacterRepository{
		sessions:   make(map[string][]byte),
		characters: make(map[model.GUID]*db.CharacterData),
		byName:     make(map[string]model.GUID),
		skills:     make(map[model.GUID][]model.Skill),
		spells:     make(map[model.GUID][]model.Spell),
	}
}

func (f *fakeCharacterRepository) SessionByAccount(ctx context.Context, accountName string) ([]byte, error) {
	return f.sessions[accountName], nil
}

func (f *fakeCharacterRepository) DeleteSession(ctx context.Context, accountName string) error {
	delete(f.sessions, accountName)
	return nil
}

func (f *fakeCharacterRepository) CharacterByGUID(ctx context.Context, guid model.GUID) (*db.CharacterData, error) {
	return f.characters[guid], nil
}

func (f *fakeCharacterRepository) CharacterExistsByName(ctx context.Context, name string) (bool, error) {
	_, ok := f.byName[name]
	return ok, nil
}

func (f *fakeCharacterRepository) CharactersByAccount(ctx context.Context, accountName string) ([]*db.CharacterData, error) {
	var out []*db.CharacterData
	for _, c := range f.characters {
		if c.AccountName == accountName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCharacterRepository) CreateCharacter(ctx context.Context, accountName, name string, race, class, gender uint8, pos model.Position) (*db.CharacterData, error) {
	f.nextLow++
	guid := model.NewGUID(f.nextLow, model.ObjectTypePlayer)
	c := &db.CharacterData{GUID: guid, AccountName: accountName, Name: name, Race: race, Class: class, Gender: gender, Position: pos}
	f.characters[guid] = c
	f.byName[name] = guid
	return c, nil
}

func (f *fakeCharacterRepository) DeleteCharacter(ctx context.Context, guid model.GUID) (bool, error) {
	c, ok := f.characters[guid]
	if !ok {
		return false, nil
	}
	delete(f.characters, guid)
	delete(f.byName, c.Name)
	return true, nil
}

func (f *fakeCharacterRepository) SkillsFor(ctx context.Context, guid model.GUID) ([]model.Skill, error) {
	return f.skills[guid], nil
}

func (f *fakeCharacterRepository) SpellsFor(ctx context.Context, guid model.GUID) ([]model.Spell, error) {
	return f.spells[guid], nil
}

func newTestHandler(repo CharacterRepository) (*Handler, *Registry, *ClientDirectory, *ChatManager, *UpdateEngine) {
	registry := NewRegistry()
	clients := NewClientDirectory()
	chat := NewChatManager()
	engine := NewUpdateEngine(registry)
	return NewHandler(repo, registry, clients, chat, engine), registry, clients, chat, engine
}

// readPacketFrom reads one SMSG-framed packet as the client side of the
// pipe would: 2-byte BE length + 2-byte LE opcode (header obfuscated by
// cipher when installed), then the body.
func readPacketFrom(t *testing.T, clientSide net.Conn, cipher *crypto.HeaderCipher) (uint16, []byte) {
	t.Helper()
	clientSide.SetReadDeadline(time.Now().Add(time.Second))

	header := make([]byte, 4)
	_, err := ioReadFull(clientSide, header)
	require.NoError(t, err)
	cipher.DecryptHeader(header)

	length := int(header[0])<<8 | int(header[1])
	opcode := uint16(header[2]) | uint16(header[3])<<8
	bodyLen := length - protocol.ServerOpcodeSize
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		_, err := ioReadFull(clientSide, body)
		require.NoError(t, err)
	}
	return opcode, body
}

func ioReadFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestHandleAuthSessionSuccess(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, _, _ := newTestHandler(repo)

	server, clientSide := net.Pipe()
	defer server.Close()
	defer clientSide.Close()
	client, err := NewClient(server, NewBytePool(256), 8, time.Second)
	require.NoError(t, err)
	go client.writePump()
	defer client.CloseAsync()

	errCh := make(chan error, 1)
	go func() { errCh <- h.SendAuthChallenge(client) }()
	_, challengeBody := readPacketFrom(t, clientSide, client.Cipher())
	require.NoError(t, <-errCh)
	require.Len(t, challengeBody, 4)
	serverSeed := leUint32(challengeBody)

	sessionKey := bytes.Repeat([]byte{0x42}, 40)
	repo.sessions["player1"] = sessionKey

	clientSeed := uint32(0xABCD1234)
	clientSeedBuf := protocol.PutUint32LE(nil, clientSeed)

	hash := sha1.New()
	hash.Write([]byte("player1"))
	hash.Write([]byte{0})
	hash.Write(clientSeedBuf)
	hash.Write(protocol.PutUint32LE(nil, serverSeed))
	hash.Write(sessionKey)
	digest := hash.Sum(nil)

	body := protocol.PutUint32LE(nil, 12340) // build number
	body = protocol.WriteCString(body, "player1")
	body = append(body, clientSeedBuf...)
	body = append(body, digest...)

	require.NoError(t, h.Dispatch(context.Background(), client, CMsgAuthSession, body))
	assert.Equal(t, StateAuthSession, client.State())
	assert.Equal(t, "player1", client.AccountName())

	opcode, resp := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, SMsgAuthResponse, opcode)
	require.NotEmpty(t, resp)
	assert.Equal(t, byte(0), resp[0])
}

func TestHandleAuthSessionWrongDigestFails(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, _, _ := newTestHandler(repo)

	server, clientSide := net.Pipe()
	defer server.Close()
	defer clientSide.Close()
	client, err := NewClient(server, NewBytePool(256), 8, time.Second)
	require.NoError(t, err)
	go client.writePump()
	defer client.CloseAsync()

	go h.SendAuthChallenge(client)
	readPacketFrom(t, clientSide, client.Cipher())

	repo.sessions["player1"] = bytes.Repeat([]byte{0x42}, 40)

	body := protocol.PutUint32LE(nil, 12340)
	body = protocol.WriteCString(body, "player1")
	body = append(body, protocol.PutUint32LE(nil, 1)...)
	body = append(body, bytes.Repeat([]byte{0xFF}, sha1.Size)...) // wrong digest

	err = h.Dispatch(context.Background(), client, CMsgAuthSession, body)
	assert.Error(t, err)
	assert.True(t, client.IsMarkedForDisconnection())
}

func authenticatedClient(t *testing.T, repo *fakeCharacterRepository, h *Handler, account string) (*Client, net.Conn) {
	t.Helper()
	server, clientSide := net.Pipe()
	t.Cleanup(func() { server.Close(); clientSide.Close() })
	client, err := NewClient(server, NewBytePool(256), 8, time.Second)
	require.NoError(t, err)
	go client.writePump()
	t.Cleanup(client.CloseAsync)

	go h.SendAuthChallenge(client)
	_, challengeBody := readPacketFrom(t, clientSide, client.Cipher())
	serverSeed := leUint32(challengeBody)

	sessionKey := bytes.Repeat([]byte{0x42}, 40)
	repo.sessions[account] = sessionKey
	clientSeedBuf := protocol.PutUint32LE(nil, 1)

	hash := sha1.New()
	hash.Write([]byte(account))
	hash.Write([]byte{0})
	hash.Write(clientSeedBuf)
	hash.Write(protocol.PutUint32LE(nil, serverSeed))
	hash.Write(sessionKey)
	digest := hash.Sum(nil)

	body := protocol.PutUint32LE(nil, 12340)
	body = protocol.WriteCString(body, account)
	body = append(body, clientSeedBuf...)
	body = append(body, digest...)
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgAuthSession, body))
	readPacketFrom(t, clientSide, client.Cipher()) // drain AUTH_RESPONSE

	return client, clientSide
}

func TestHandleCharCreateAndEnum(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, _, _ := newTestHandler(repo)
	client, clientSide := authenticatedClient(t, repo, h, "player1")

	body := protocol.WriteCString(nil, "Arthas")
	body = append(body, 1, 1, 0) // race, class, gender
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgCharCreate, body))
	opcode, resp := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, SMsgCharCreate, opcode)
	require.Len(t, resp, 1)
	assert.Equal(t, byte(CharEnumOK), resp[0])

	// duplicate name rejected
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgCharCreate, body))
	_, resp2 := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, byte(CharEnumFailed), resp2[0])

	require.NoError(t, h.Dispatch(context.Background(), client, CMsgCharEnum, nil))
	opcode, enumResp := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, SMsgCharEnum, opcode)
	require.NotEmpty(t, enumResp)
	assert.Equal(t, byte(1), enumResp[0]) // one character
	assert.Equal(t, StateCharList, client.State())
}

func TestHandleCharDeleteRejectsWrongAccount(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, _, _ := newTestHandler(repo)

	char, err := repo.CreateCharacter(context.Background(), "owner", "Jaina", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)

	client, clientSide := authenticatedClient(t, repo, h, "attacker")

	body := appendGUID(nil, char.GUID)
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgCharDelete, body))
	_, resp := readPacketFrom(t, clientSide, client.Cipher())
	require.Len(t, resp, 1)
	assert.Equal(t, byte(CharEnumFailed), resp[0])

	_, stillThere := repo.characters[char.GUID]
	assert.True(t, stillThere)
}

func TestHandlePlayerLoginRejectsUnownedCharacter(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, registry, _, _, _ := newTestHandler(repo)

	char, err := repo.CreateCharacter(context.Background(), "owner", "Jaina", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)

	client, _ := authenticatedClient(t, repo, h, "attacker")
	body := appendGUID(nil, char.GUID)
	err = h.Dispatch(context.Background(), client, CMsgPlayerLogin, body)
	assert.Error(t, err)
	assert.Nil(t, registry.GetPlayer(char.GUID))
}

func TestHandlePlayerLoginRegistersPlayer(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, registry, clients, _, _ := newTestHandler(repo)

	char, err := repo.CreateCharacter(context.Background(), "player1", "Arthas", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)
	repo.skills[char.GUID] = []model.Skill{{ID: 100, Level: 1}}
	repo.spells[char.GUID] = []model.Spell{{ID: 200}}

	client, clientSide := authenticatedClient(t, repo, h, "player1")
	body := appendGUID(nil, char.GUID)
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgPlayerLogin, body))

	opcode, resp := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, SMsgLoginVerifyWorld, opcode)
	require.NotEmpty(t, resp)
	assert.Equal(t, StateInWorld, client.State())

	p := registry.GetPlayer(char.GUID)
	require.NotNil(t, p)
	assert.Equal(t, "Arthas", p.Name())
	require.Len(t, p.Skills(), 1)
	require.Len(t, p.Spells(), 1)
	assert.Equal(t, client, clients.Get(char.GUID))
}

func TestHandleNameQueryExactByteLayout(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, registry, _, _, _ := newTestHandler(repo)

	guid := model.GUID(0x1122334455667788)
	p := model.NewPlayer(guid, "player1", "Bob", 1, 1, 0) // race=1, class=1, gender=0
	registry.RegisterPlayer(p)

	querierChar, err := repo.CreateCharacter(context.Background(), "player1", "Querier", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)
	client, clientSide := authenticatedClient(t, repo, h, "player1")
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgPlayerLogin, appendGUID(nil, querierChar.GUID)))
	readPacketFrom(t, clientSide, client.Cipher()) // drain SMSG_LOGIN_VERIFY_WORLD

	req := appendGUID(nil, guid)
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgNameQuery, req))

	opcode, resp := readPacketFrom(t, clientSide, client.Cipher())
	assert.Equal(t, SMsgNameQuery, opcode)

	gotGUID, ok := readGUID(resp)
	require.True(t, ok)
	assert.Equal(t, guid, gotGUID)

	r := bytes.NewReader(resp[8:])
	name, err := protocol.ReadCString(r)
	require.NoError(t, err)
	assert.Equal(t, "Bob", name)

	rest := resp[8+len(name)+1:]
	race := leUint32(rest)
	gender := leUint32(rest[4:])
	class := leUint32(rest[8:])
	assert.Equal(t, uint32(1), race)
	assert.Equal(t, uint32(0), gender)
	assert.Equal(t, uint32(1), class)
}

func TestHandleMessageChatUnknownTypeIgnored(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, _, _ := newTestHandler(repo)

	char, err := repo.CreateCharacter(context.Background(), "player1", "Arthas", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)
	client, clientSide := authenticatedClient(t, repo, h, "player1")
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgPlayerLogin, appendGUID(nil, char.GUID)))
	readPacketFrom(t, clientSide, client.Cipher()) // drain LOGIN_VERIFY_WORLD

	body := []byte{99}
	body = protocol.WriteCString(body, "hi")
	require.NoError(t, h.Dispatch(context.Background(), client, CMsgMessageChat, body))
}

func TestHandleJoinChannelWrongPasswordNotifiesJoiner(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, chat, _ := newTestHandler(repo)

	char1, err := repo.CreateCharacter(context.Background(), "player1", "Alice", 1, 1, 1, defaultSpawn)
	require.NoError(t, err)
	client1, clientSide1 := authenticatedClient(t, repo, h, "player1")
	require.NoError(t, h.Dispatch(context.Background(), client1, CMsgPlayerLogin, appendGUID(nil, char1.GUID)))
	readPacketFrom(t, clientSide1, client1.Cipher())

	joinBody := protocol.WriteCString(nil, "guild")
	joinBody = protocol.WriteCString(joinBody, "secret")
	require.NoError(t, h.Dispatch(context.Background(), client1, CMsgJoinChannel, joinBody))
	opcode, resp := readPacketFrom(t, clientSide1, client1.Cipher())
	assert.Equal(t, SMsgChannelNotify, opcode)
	require.NotEmpty(t, resp)
	assert.Equal(t, byte(ChatNotifyYouJoined), resp[0])

	char2, err := repo.CreateCharacter(context.Background(), "player2", "Bob", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)
	client2, clientSide2 := authenticatedClient(t, repo, h, "player2")
	require.NoError(t, h.Dispatch(context.Background(), client2, CMsgPlayerLogin, appendGUID(nil, char2.GUID)))
	readPacketFrom(t, clientSide2, client2.Cipher())
	// drain the spawn-broadcast update both players receive from sharing defaultSpawn's map/zone
	readPacketFrom(t, clientSide1, client1.Cipher())
	readPacketFrom(t, clientSide2, client2.Cipher())

	wrongJoin := protocol.WriteCString(nil, "guild")
	wrongJoin = protocol.WriteCString(wrongJoin, "wrong")
	require.NoError(t, h.Dispatch(context.Background(), client2, CMsgJoinChannel, wrongJoin))
	_, resp2 := readPacketFrom(t, clientSide2, client2.Cipher())
	require.NotEmpty(t, resp2)
	assert.Equal(t, byte(ChatNotifyWrongPassword), resp2[0])

	ch := chat.Channel("guild")
	require.NotNil(t, ch)
	assert.Equal(t, 1, ch.MemberCount())
}

func TestHandleLeaveChannelNotifiesOnlyRemainingMembers(t *testing.T) {
	repo := newFakeCharacterRepository()
	h, _, _, chat, _ := newTestHandler(repo)

	char1, err := repo.CreateCharacter(context.Background(), "player1", "Alice", 1, 1, 1, defaultSpawn)
	require.NoError(t, err)
	client1, clientSide1 := authenticatedClient(t, repo, h, "player1")
	require.NoError(t, h.Dispatch(context.Background(), client1, CMsgPlayerLogin, appendGUID(nil, char1.GUID)))
	readPacketFrom(t, clientSide1, client1.Cipher())

	char2, err := repo.CreateCharacter(context.Background(), "player2", "Bob", 1, 1, 0, defaultSpawn)
	require.NoError(t, err)
	client2, clientSide2 := authenticatedClient(t, repo, h, "player2")
	require.NoError(t, h.Dispatch(context.Background(), client2, CMsgPlayerLogin, appendGUID(nil, char2.GUID)))
	readPacketFrom(t, clientSide2, client2.Cipher())
	// drain the spawn-broadcast update both players receive from sharing defaultSpawn's map/zone
	readPacketFrom(t, clientSide1, client1.Cipher())
	readPacketFrom(t, clientSide2, client2.Cipher())

	joinBody := protocol.WriteCString(nil, "General - Elwynn")
	joinBody = protocol.WriteCString(joinBody, "")
	require.NoError(t, h.Dispatch(context.Background(), client1, CMsgJoinChannel, joinBody))
	readPacketFrom(t, clientSide1, client1.Cipher()) // drain player1's own YOU_JOINED

	require.NoError(t, h.Dispatch(context.Background(), client2, CMsgJoinChannel, joinBody))
	opcode, resp := readPacketFrom(t, clientSide1, client1.Cipher()) // player2's join notify
	assert.Equal(t, SMsgChannelNotify, opcode)
	assert.Equal(t, byte(ChatNotifyJoined), resp[0])
	readPacketFrom(t, clientSide2, client2.Cipher()) // drain player2's own YOU_JOINED

	leaveBody := protocol.WriteCString(nil, "General - Elwynn")
	require.NoError(t, h.Dispatch(context.Background(), client2, CMsgLeaveChannel, leaveBody))

	opcode, resp = readPacketFrom(t, clientSide1, client1.Cipher())
	assert.Equal(t, SMsgChannelNotify, opcode)
	assert.Equal(t, byte(ChatNotifyLeft), resp[0])
	assert.Equal(t, byte(char2.GUID.Low()), resp[len(resp)-8])

	opcode, youResp := readPacketFrom(t, clientSide2, client2.Cipher())
	assert.Equal(t, SMsgChannelNotify, opcode)
	assert.Equal(t, byte(ChatNotifyYouLeft), youResp[0])
	assert.Equal(t, byte(1), youResp[len(youResp)-4], "General - prefix carries internal id 1")

	ch := chat.Channel("General - Elwynn")
	require.NotNil(t, ch)
	assert.Equal(t, 1, ch.MemberCount())
}
