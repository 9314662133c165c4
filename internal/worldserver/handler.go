package worldserver

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// defaultSpawn is where a newly created character first appears.
var defaultSpawn = model.NewPosition(0, 12, 0, 0, 0, 0)

// Handler dispatches world-protocol opcodes against connection state
// (§4.4). One Handler is shared by every connection on the server.
type Handler struct {
	repo     CharacterRepository
	registry *Registry
	clients  *ClientDirectory
	chat     *ChatManager
	engine   *UpdateEngine
}

// NewHandler wires a dispatch handler to its collaborators.
func NewHandler(repo CharacterRepository, registry *Registry, clients *ClientDirectory, chat *ChatManager, engine *UpdateEngine) *Handler {
	return &Handler{repo: repo, registry: registry, clients: clients, chat: chat, engine: engine}
}

// SendAuthChallenge sends SMSG_AUTH_CHALLENGE right after accept: a 4-byte
// server seed the client must echo back in its AUTH_SESSION digest (§4.4).
func (h *Handler) SendAuthChallenge(client *Client) error {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("generating server seed: %w", err)
	}
	seedVal := leUint32(seed[:])
	client.UpdateHandlerData(func(s *HandlerState) { s.ServerSeed = seedVal })

	body := protocol.PutUint32LE(nil, seedVal)
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgAuthChallenge, body)
	if err != nil {
		return err
	}
	client.SetState(StateAuthChallenge)
	return client.SendSync(pkt, defaultWriteTimeout)
}

// Dispatch routes one inbound packet to its handler based on opcode and
// current state. An opcode invalid for the current state, or unknown
// before IN_WORLD, closes the connection; unknown opcodes once IN_WORLD are
// logged and ignored (§4.4).
func (h *Handler) Dispatch(ctx context.Context, client *Client, opcode uint32, body []byte) error {
	state := client.State()

	switch opcode {
	case CMsgAuthSession:
		if state != StateAuthChallenge {
			return h.protocolError(client, "AUTH_SESSION received in state %s", state)
		}
		return h.handleAuthSession(ctx, client, body)

	case CMsgCharEnum:
		if state < StateAuthSession {
			return h.protocolError(client, "CHAR_ENUM received in state %s", state)
		}
		return h.handleCharEnum(ctx, client)

	case CMsgCharCreate:
		if state < StateAuthSession {
			return h.protocolError(client, "CHAR_CREATE received in state %s", state)
		}
		return h.handleCharCreate(ctx, client, body)

	case CMsgCharDelete:
		if state < StateAuthSession {
			return h.protocolError(client, "CHAR_DELETE received in state %s", state)
		}
		return h.handleCharDelete(ctx, client, body)

	case CMsgPlayerLogin:
		if state < StateAuthSession {
			return h.protocolError(client, "PLAYER_LOGIN received in state %s", state)
		}
		return h.handlePlayerLogin(ctx, client, body)

	case CMsgNameQuery:
		if state != StateInWorld {
			return h.protocolError(client, "NAME_QUERY received in state %s", state)
		}
		return h.handleNameQuery(client, body)

	case CMsgMove:
		if state != StateInWorld {
			return h.protocolError(client, "MOVE received in state %s", state)
		}
		return h.handleMove(client, body)

	case MsgMoveWorldportAck:
		if state != StateInWorld {
			return h.protocolError(client, "WORLDPORT_ACK received in state %s", state)
		}
		client.UpdateHandlerData(func(s *HandlerState) { s.WorldportAckPending = false })
		return nil

	case CMsgMessageChat:
		if state != StateInWorld {
			return h.protocolError(client, "MESSAGECHAT received in state %s", state)
		}
		return h.handleMessageChat(client, body)

	case CMsgJoinChannel:
		if state != StateInWorld {
			return h.protocolError(client, "JOIN_CHANNEL received in state %s", state)
		}
		return h.handleJoinChannel(client, body)

	case CMsgLeaveChannel:
		if state != StateInWorld {
			return h.protocolError(client, "LEAVE_CHANNEL received in state %s", state)
		}
		return h.handleLeaveChannel(client, body)

	default:
		if state != StateInWorld {
			return h.protocolError(client, "unknown opcode 0x%04X received in state %s", opcode, state)
		}
		slog.Warn("unknown world opcode", "opcode", fmt.Sprintf("0x%04X", opcode), "client", client.IP())
		return nil
	}
}

func (h *Handler) protocolError(client *Client, format string, args ...any) error {
	slog.Warn(fmt.Sprintf(format, args...), "client", client.IP())
	client.SetState(StateClosed)
	client.CloseAsync()
	return fmt.Errorf(format, args...)
}

// handleAuthSession validates CMSG_AUTH_SESSION's digest against the
// session key the auth server negotiated, then installs the header cipher
// (§4.4): body is buildNumber(4 LE) + accountName(cstring) +
// clientSeed(4 LE) + digest(20), where
// digest = SHA-1(name || 0 || clientSeed || serverSeed || K).
func (h *Handler) handleAuthSession(ctx context.Context, client *Client, body []byte) error {
	r := bytes.NewReader(body)
	var buildBuf [4]byte
	if _, err := readFull(r, buildBuf[:]); err != nil {
		return h.protocolError(client, "short AUTH_SESSION body: %v", err)
	}
	name, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading AUTH_SESSION account name: %v", err)
	}
	var clientSeedBuf [4]byte
	if _, err := readFull(r, clientSeedBuf[:]); err != nil {
		return h.protocolError(client, "short AUTH_SESSION client seed: %v", err)
	}
	digest := make([]byte, sha1.Size)
	if _, err := readFull(r, digest); err != nil {
		return h.protocolError(client, "short AUTH_SESSION digest: %v", err)
	}

	sessionKey, err := h.repo.SessionByAccount(ctx, name)
	if err != nil {
		return fmt.Errorf("looking up session for %q: %w", name, err)
	}
	if sessionKey == nil {
		return h.authFail(client, "no pending login session for account %q", name)
	}

	serverSeed := client.HandlerData().ServerSeed
	serverSeedBuf := protocol.PutUint32LE(nil, serverSeed)

	hash := sha1.New()
	hash.Write([]byte(name))
	hash.Write([]byte{0})
	hash.Write(clientSeedBuf[:])
	hash.Write(serverSeedBuf)
	hash.Write(sessionKey)
	expected := hash.Sum(nil)

	if subtle.ConstantTimeCompare(expected, digest) != 1 {
		return h.authFail(client, "AUTH_SESSION digest mismatch for account %q", name)
	}

	if err := h.repo.DeleteSession(ctx, name); err != nil {
		slog.Warn("failed to consume login session", "account", name, "err", err)
	}

	client.SetAccountName(name)
	client.SetSessionKey(sessionKey)
	client.SetState(StateAuthSession)

	resp := append([]byte{0}, 0, 0, 0) // AUTH_OK + realm/expansion padding
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgAuthResponse, resp)
	if err != nil {
		return err
	}
	return client.SendSync(pkt, defaultWriteTimeout)
}

func (h *Handler) authFail(client *Client, format string, args ...any) error {
	slog.Warn(fmt.Sprintf(format, args...), "client", client.IP())
	resp := []byte{1} // AUTH_FAILED
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgAuthResponse, resp)
	if err == nil {
		_ = client.SendSync(pkt, defaultWriteTimeout)
	}
	client.SetState(StateClosed)
	client.MarkForDisconnection()
	return fmt.Errorf(format, args...)
}

// handleCharEnum builds the account's character list (§6: CMSG/SMSG_CHAR_ENUM).
func (h *Handler) handleCharEnum(ctx context.Context, client *Client) error {
	chars, err := h.repo.CharactersByAccount(ctx, client.AccountName())
	if err != nil {
		return fmt.Errorf("loading characters for %q: %w", client.AccountName(), err)
	}

	body := []byte{byte(len(chars))}
	for _, c := range chars {
		body = appendGUID(body, c.GUID)
		body = protocol.WriteCString(body, c.Name)
		body = append(body, c.Race, c.Class, c.Gender)
		body = protocol.PutUint32LE(body, c.Position.Map)
		body = protocol.PutUint32LE(body, c.Position.Zone)
		body = appendFloat32(body, c.Position.X)
		body = appendFloat32(body, c.Position.Y)
		body = appendFloat32(body, c.Position.Z)
		body = appendFloat32(body, c.Position.Orientation)
	}

	client.SetState(StateCharList)
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgCharEnum, body)
	if err != nil {
		return err
	}
	return client.SendSync(pkt, defaultWriteTimeout)
}

// handleCharCreate creates a character for the connected account
// (§6: CMSG/SMSG_CHAR_CREATE). Body: name(cstring) + race(1) + class(1) +
// gender(1).
func (h *Handler) handleCharCreate(ctx context.Context, client *Client, body []byte) error {
	r := bytes.NewReader(body)
	name, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading CHAR_CREATE name: %v", err)
	}
	var attrs [3]byte
	if _, err := readFull(r, attrs[:]); err != nil {
		return h.protocolError(client, "short CHAR_CREATE body: %v", err)
	}

	exists, err := h.repo.CharacterExistsByName(ctx, name)
	if err != nil {
		return fmt.Errorf("checking character name %q: %w", name, err)
	}
	result := byte(CharEnumOK)
	if exists {
		result = byte(CharEnumFailed)
	} else {
		if _, err := h.repo.CreateCharacter(ctx, client.AccountName(), name, attrs[0], attrs[1], attrs[2], defaultSpawn); err != nil {
			return fmt.Errorf("creating character %q: %w", name, err)
		}
	}

	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgCharCreate, []byte{result})
	if err != nil {
		return err
	}
	return client.SendSync(pkt, defaultWriteTimeout)
}

// handleCharDelete deletes a character belonging to the connected account
// (§6: CMSG/SMSG_CHAR_DELETE). Body: guid(8).
func (h *Handler) handleCharDelete(ctx context.Context, client *Client, body []byte) error {
	guid, ok := readGUID(body)
	if !ok {
		return h.protocolError(client, "short CHAR_DELETE body")
	}

	char, err := h.repo.CharacterByGUID(ctx, guid)
	if err != nil {
		return fmt.Errorf("looking up character %d: %w", guid.Low(), err)
	}
	result := byte(CharEnumOK)
	if char == nil || char.AccountName != client.AccountName() {
		result = byte(CharEnumFailed)
	} else if _, err := h.repo.DeleteCharacter(ctx, guid); err != nil {
		return fmt.Errorf("deleting character %d: %w", guid.Low(), err)
	}

	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgCharDelete, []byte{result})
	if err != nil {
		return err
	}
	return client.SendSync(pkt, defaultWriteTimeout)
}

// handlePlayerLogin instantiates the selected character as a live Player,
// registers it with the object manager, and admits the connection to
// IN_WORLD (§4.4, §4.5). Body: guid(8).
func (h *Handler) handlePlayerLogin(ctx context.Context, client *Client, body []byte) error {
	guid, ok := readGUID(body)
	if !ok {
		return h.protocolError(client, "short PLAYER_LOGIN body")
	}

	char, err := h.repo.CharacterByGUID(ctx, guid)
	if err != nil {
		return fmt.Errorf("looking up character %d: %w", guid.Low(), err)
	}
	if char == nil || char.AccountName != client.AccountName() {
		return h.protocolError(client, "PLAYER_LOGIN for unowned character %d", guid.Low())
	}

	player := model.NewPlayer(guid, char.AccountName, char.Name, char.Race, char.Class, char.Gender)
	player.SetPosition(char.Position)

	skills, err := h.repo.SkillsFor(ctx, guid)
	if err != nil {
		return fmt.Errorf("loading skills for %d: %w", guid.Low(), err)
	}
	for _, s := range skills {
		_ = player.AddSkill(s)
	}
	spells, err := h.repo.SpellsFor(ctx, guid)
	if err != nil {
		return fmt.Errorf("loading spells for %d: %w", guid.Low(), err)
	}
	for _, sp := range spells {
		_ = player.AddSpell(sp)
	}

	h.registry.RegisterPlayer(player)
	h.registry.UpdatePosition(guid, char.Position)
	h.clients.Bind(guid, client)
	h.engine.Seed(guid, player.Snapshot())

	client.SetPlayer(player)
	client.UpdateHandlerData(func(s *HandlerState) {
		s.SelectedCharacter = guid
		s.WorldportAckPending = true
	})
	client.SetState(StateInWorld)

	body2 := protocol.PutUint32LE(nil, char.Position.Map)
	body2 = protocol.PutUint32LE(body2, char.Position.Zone)
	body2 = appendFloat32(body2, char.Position.X)
	body2 = appendFloat32(body2, char.Position.Y)
	body2 = appendFloat32(body2, char.Position.Z)
	body2 = appendFloat32(body2, char.Position.Orientation)
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgLoginVerifyWorld, body2)
	if err != nil {
		return err
	}
	if err := client.SendSync(pkt, defaultWriteTimeout); err != nil {
		return err
	}

	h.broadcastSpawn(player)
	return nil
}

// broadcastSpawn sends a create block for a newly logged-in player to
// itself and to every other player already sharing its map/zone, and
// sends each of those existing players' create blocks back to the new
// arrival, so both sides' client-side object caches agree on what's
// visible (§4.5, §4.6).
func (h *Handler) broadcastSpawn(player *model.Player) {
	peers := h.registry.PlayersInMap(player.Position().Map, player.Position().Zone)

	selfBlock := BuildCreateBlock(nil, player.BaseObject, peerMovement(player))
	selfBody := FrameUpdatePacket([][]byte{selfBlock})

	for _, peer := range peers {
		if peer.GUID() == player.GUID() {
			continue
		}
		player.Track(peer.GUID())
		peer.Track(player.GUID())

		peerBlock := BuildCreateBlock(nil, peer.BaseObject, peerMovement(peer))
		if err := h.sendTo(peer, SMsgUpdateObject, selfBody); err != nil {
			slog.Warn("spawn broadcast to peer failed", "peer", peer.Name(), "err", err)
		}
		if err := h.sendTo(player, SMsgUpdateObject, FrameUpdatePacket([][]byte{peerBlock})); err != nil {
			slog.Warn("spawn broadcast of peer to new player failed", "player", player.Name(), "err", err)
		}
	}
}

func peerMovement(p *model.Player) *model.MovementRecord {
	m := p.Movement()
	return &m
}

func (h *Handler) sendTo(p *model.Player, opcode uint16, body []byte) error {
	c := h.clients.Get(p.GUID())
	if c == nil {
		return nil
	}
	pkt, err := protocol.AppendServerPacket(nil, c.Cipher(), opcode, body)
	if err != nil {
		return err
	}
	return c.Send(pkt)
}

// handleNameQuery answers a name lookup for any registered player (§8
// scenario 6): request body is guid(8); response is
// guid(8) + name(cstring) + race(4 LE) + gender(4 LE) + class(4 LE).
func (h *Handler) handleNameQuery(client *Client, body []byte) error {
	guid, ok := readGUID(body)
	if !ok {
		return h.protocolError(client, "short NAME_QUERY body")
	}

	target := h.registry.GetPlayer(guid)
	if target == nil {
		return nil // unknown guid: silently ignored, matching a not-yet-visible object
	}

	resp := appendGUID(nil, guid)
	resp = protocol.WriteCString(resp, target.Name())
	resp = protocol.PutUint32LE(resp, uint32(target.Race()))
	resp = protocol.PutUint32LE(resp, uint32(target.Gender()))
	resp = protocol.PutUint32LE(resp, uint32(target.Class()))

	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgNameQuery, resp)
	if err != nil {
		return err
	}
	return client.SendSync(pkt, defaultWriteTimeout)
}

// handleMove applies a client-reported movement record to its player and
// refreshes the object registry's map/zone index (§4.6 fan-out reads that
// index, not the object's live lock, to decide subscription). Body:
// flags(4 LE) + timestamp(4 LE) + x,y,z,orientation,pitch(4 LE floats) +
// fallTime(4 LE).
func (h *Handler) handleMove(client *Client, body []byte) error {
	if len(body) < 4*8 {
		return h.protocolError(client, "short MOVE body")
	}
	player := client.Player()
	if player == nil {
		return h.protocolError(client, "MOVE received with no active player")
	}

	off := 0
	flags := model.MovementFlags(leUint32(body[off:]))
	off += 4
	timestamp := leUint32(body[off:])
	off += 4
	x := leFloat32(body[off:])
	off += 4
	y := leFloat32(body[off:])
	off += 4
	z := leFloat32(body[off:])
	off += 4
	orientation := leFloat32(body[off:])
	off += 4
	pitch := leFloat32(body[off:])
	off += 4
	fallTime := leUint32(body[off:])

	oldPos := player.Position()
	newPos := model.NewPosition(oldPos.Map, oldPos.Zone, x, y, z, orientation)
	player.SetMovement(model.MovementRecord{
		Flags:     flags,
		Timestamp: timestamp,
		Position:  newPos,
		Pitch:     pitch,
		FallTime:  fallTime,
	})
	h.registry.UpdatePosition(player.GUID(), newPos)

	// Movement is relayed directly to trackers rather than waiting on the
	// periodic update tick: position isn't part of the dense field table
	// (§4.6), so it never shows up in a values diff.
	moveBody := appendGUID(nil, player.GUID())
	moveBody = append(moveBody, body...)
	for _, guid := range player.TrackedGUIDs() {
		other := h.registry.GetPlayer(guid)
		if other == nil {
			continue
		}
		if err := h.sendTo(other, uint16(CMsgMove), moveBody); err != nil {
			slog.Warn("movement relay failed", "player", player.Name(), "target", other.Name(), "err", err)
		}
	}
	return nil
}

// handleMessageChat parses a CMSG_MESSAGECHAT request and routes it through
// the chat manager (§4.7). Body: type(1) + [channelName(cstring) if type
// is CHANNEL] + text(cstring).
func (h *Handler) handleMessageChat(client *Client, body []byte) error {
	if len(body) < 1 {
		return h.protocolError(client, "empty MESSAGECHAT body")
	}
	msgType := ChatMessageType(body[0])
	r := bytes.NewReader(body[1:])

	var channelName string
	if msgType == ChatTypeChannel {
		name, err := protocol.ReadCString(r)
		if err != nil {
			return h.protocolError(client, "reading MESSAGECHAT channel name: %v", err)
		}
		channelName = name
	}
	text, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading MESSAGECHAT text: %v", err)
	}

	player := client.Player()
	if player == nil {
		return h.protocolError(client, "MESSAGECHAT received with no active player")
	}

	everyone := h.registry.PlayersInMap(player.Position().Map, player.Position().Zone)
	err = h.chat.ReceiveMessage(player, ChatMessage{Type: msgType, ChannelName: channelName, Text: text}, everyone, h.deliverTo)
	if err == nil {
		return nil
	}
	if _, ok := err.(ChatError); ok {
		slog.Debug("chat message rejected", "player", player.Name(), "err", err)
		return nil
	}
	return err
}

// deliverTo frames body as SMSG_MESSAGECHAT and sends it to whichever
// connection currently serves p, if any.
func (h *Handler) deliverTo(p *model.Player, body []byte) error {
	c := h.clients.Get(p.GUID())
	if c == nil {
		return nil // player registered but not presently connected (shouldn't happen for IN_WORLD chat)
	}
	pkt, err := protocol.AppendServerPacket(nil, c.Cipher(), SMsgMessageChat, body)
	if err != nil {
		return err
	}
	return c.Send(pkt)
}

// handleJoinChannel joins the connected player to a named channel and
// notifies the other current members, then the joiner itself (§4.7, §8
// scenario 3). Body: channelName(cstring) + password(cstring).
func (h *Handler) handleJoinChannel(client *Client, body []byte) error {
	r := bytes.NewReader(body)
	name, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading JOIN_CHANNEL name: %v", err)
	}
	password, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading JOIN_CHANNEL password: %v", err)
	}

	player := client.Player()
	if player == nil {
		return h.protocolError(client, "JOIN_CHANNEL received with no active player")
	}

	existingMembers := []*model.Player{}
	if ch := h.chat.Channel(name); ch != nil {
		existingMembers = ch.Members()
	}

	ch, err := h.chat.JoinChannel(name, password, player)
	if err != nil {
		if err == ChatErrWrongPassword {
			resp := ChannelNotifyYou(ChatNotifyWrongPassword, name, 0)
			pkt, perr := protocol.AppendServerPacket(nil, client.Cipher(), SMsgChannelNotify, resp)
			if perr != nil {
				return perr
			}
			return client.Send(pkt)
		}
		return err
	}

	// Existing members are notified a new player joined; the joiner itself
	// is not included in that broadcast (§8 open-question resolution:
	// implemented as specified, flagged for product review in the design
	// notes).
	joinedBody := ChannelNotifyJoinedOrLeft(ChatNotifyJoined, name, player.GUID())
	for _, m := range existingMembers {
		if err := h.deliverRaw(m, joinedBody); err != nil {
			slog.Warn("channel join notify failed", "player", m.Name(), "err", err)
		}
	}

	youBody := ChannelNotifyYou(ChatNotifyYouJoined, name, ch.InternalID())
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgChannelNotify, youBody)
	if err != nil {
		return err
	}
	return client.Send(pkt)
}

// handleLeaveChannel removes the connected player from a channel and
// notifies the remaining members. The leaver is removed before the
// notification list is captured, so it is naturally absent from its own
// "left" broadcast without explicit filtering (matches the source
// behaviour). Body: channelName(cstring).
func (h *Handler) handleLeaveChannel(client *Client, body []byte) error {
	r := bytes.NewReader(body)
	name, err := protocol.ReadCString(r)
	if err != nil {
		return h.protocolError(client, "reading LEAVE_CHANNEL name: %v", err)
	}

	player := client.Player()
	if player == nil {
		return h.protocolError(client, "LEAVE_CHANNEL received with no active player")
	}

	ch := h.chat.Channel(name)
	var channelID uint32
	if ch != nil {
		channelID = ch.InternalID()
	}

	h.chat.LeaveChannel(name, player)

	var remaining []*model.Player
	if ch != nil {
		remaining = ch.Members()
	}

	leftBody := ChannelNotifyJoinedOrLeft(ChatNotifyLeft, name, player.GUID())
	for _, m := range remaining {
		if err := h.deliverRaw(m, leftBody); err != nil {
			slog.Warn("channel leave notify failed", "player", m.Name(), "err", err)
		}
	}

	youBody := ChannelNotifyYou(ChatNotifyYouLeft, name, channelID)
	pkt, err := protocol.AppendServerPacket(nil, client.Cipher(), SMsgChannelNotify, youBody)
	if err != nil {
		return err
	}
	return client.Send(pkt)
}

func (h *Handler) deliverRaw(p *model.Player, body []byte) error {
	c := h.clients.Get(p.GUID())
	if c == nil {
		return nil
	}
	pkt, err := protocol.AppendServerPacket(nil, c.Cipher(), SMsgChannelNotify, body)
	if err != nil {
		return err
	}
	return c.Send(pkt)
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, fmt.Errorf("short read: got %d, want %d", n, len(buf))
	}
	return n, nil
}

func readGUID(body []byte) (model.GUID, bool) {
	if len(body) < 8 {
		return 0, false
	}
	low := leUint32(body)
	high := leUint32(body[4:])
	return model.GUID(uint64(high)<<32 | uint64(low)), true
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leFloat32(b []byte) float32 {
	return math.Float32frombits(leUint32(b))
}
