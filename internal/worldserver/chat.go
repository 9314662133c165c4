package worldserver

import (
	"strings"
	"sync"

	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// ChatError is returned by chat-manager operations for the handled failure
// cases named in §4.7 (wrong channel password, not a member, unknown
// message type).
type ChatError int

const (
	ChatErrNone ChatError = iota
	ChatErrWrongPassword
	ChatErrNotMember
	ChatErrUnknownMessageType
)

func (e ChatError) Error() string {
	switch e {
	case ChatErrWrongPassword:
		return "wrong channel password"
	case ChatErrNotMember:
		return "not a channel member"
	case ChatErrUnknownMessageType:
		return "unknown chat message type"
	default:
		return "chat error"
	}
}

// Channel is a named chat channel (§3). Membership and password are guarded
// by their own lock, a leaf in the locking order (§5).
type Channel struct {
	mu         sync.RWMutex
	name       string
	internalID uint32
	password   string
	hasPass    bool
	members    map[model.GUID]*model.Player
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// InternalID returns the channel's numeric id, derived from its name prefix
// (§8 scenario 3: joining "General - Elwynn" yields internal_id=1).
func (c *Channel) InternalID() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.internalID
}

// MemberCount returns the number of players currently joined.
func (c *Channel) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Members returns a snapshot of the channel's current membership.
func (c *Channel) Members() []*model.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.Player, 0, len(c.members))
	for _, p := range c.members {
		out = append(out, p)
	}
	return out
}

// internalNamePrefixMap assigns the numeric channel id the client expects
// for well-known system channels, keyed by name prefix; anything else gets
// internal id 0 (§3, §8 scenario 3).
var internalNamePrefixMap = []struct {
	prefix string
	id     uint32
}{
	{"General - ", 1},
	{"Trade - ", 2},
	{"LocalDefense - ", 3},
}

func internalChannelID(name string) uint32 {
	for _, e := range internalNamePrefixMap {
		if strings.HasPrefix(name, e.prefix) {
			return e.id
		}
	}
	return 0
}

// ChatManager owns the process-wide set of named channels (§4.7).
type ChatManager struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewChatManager creates an empty chat manager.
func NewChatManager() *ChatManager {
	return &ChatManager{channels: make(map[string]*Channel)}
}

// GC sweeps for and removes any channel left with zero members, a
// periodic backstop alongside LeaveChannel's own cleanup (§5: "channel
// GC" is one of the shared background-worker pool's periodic tasks).
func (m *ChatManager) GC() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, ch := range m.channels {
		if ch.MemberCount() == 0 {
			delete(m.channels, name)
		}
	}
}

// JoinChannel joins player to the named channel, creating it (and adopting
// password) on first join; an existing channel requires a matching
// password. A mismatch returns ChatErrWrongPassword without adding p; the
// channel is kept if it still has members and removed if it is empty
// (§4.7, §8 scenario 4).
func (m *ChatManager) JoinChannel(name, password string, p *model.Player) (*Channel, error) {
	m.mu.Lock()
	ch, exists := m.channels[name]
	if !exists {
		ch = &Channel{
			name:       name,
			internalID: internalChannelID(name),
			password:   password,
			hasPass:    password != "",
			members:    make(map[model.GUID]*model.Player),
		}
		m.channels[name] = ch
	}
	m.mu.Unlock()

	ch.mu.Lock()
	if exists && ch.hasPass && ch.password != password {
		empty := len(ch.members) == 0
		ch.mu.Unlock()
		if empty {
			m.mu.Lock()
			if current, ok := m.channels[name]; ok && current == ch {
				delete(m.channels, name)
			}
			m.mu.Unlock()
		}
		return nil, ChatErrWrongPassword
	}
	ch.members[p.GUID()] = p
	ch.mu.Unlock()

	return ch, nil
}

// LeaveChannel removes player from the named channel. If the channel is
// left empty, it is garbage collected (§4.7). Leaving a channel the player
// wasn't a member of, or a channel that doesn't exist, is a no-op.
func (m *ChatManager) LeaveChannel(name string, p *model.Player) {
	m.mu.RLock()
	ch, exists := m.channels[name]
	m.mu.RUnlock()
	if !exists {
		return
	}

	ch.mu.Lock()
	delete(ch.members, p.GUID())
	empty := len(ch.members) == 0
	ch.mu.Unlock()

	if empty {
		m.mu.Lock()
		if current, ok := m.channels[name]; ok && current == ch {
			delete(m.channels, name)
		}
		m.mu.Unlock()
	}
}

// Channel returns the named channel, or nil if it doesn't exist.
func (m *ChatManager) Channel(name string) *Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channels[name]
}

// ChatMessage is one inbound CMSG_MESSAGECHAT request (§4.7).
type ChatMessage struct {
	Type        ChatMessageType
	ChannelName string // only meaningful when Type == ChatTypeChannel
	Text        string
}

// ReceiveMessage routes an inbound chat message from sender: CHANNEL
// messages require membership (ChatErrNotMember otherwise); SAY/YELL/EMOTE
// broadcast to every IN_WORLD player; any other type is
// ChatErrUnknownMessageType (§4.7). deliver is called once per recipient
// with an already-built SMSG_MESSAGECHAT body.
func (m *ChatManager) ReceiveMessage(sender *model.Player, msg ChatMessage, everyone []*model.Player, deliver func(p *model.Player, body []byte) error) error {
	switch msg.Type {
	case ChatTypeChannel:
		ch := m.Channel(msg.ChannelName)
		if ch == nil {
			return ChatErrNotMember
		}
		ch.mu.RLock()
		_, member := ch.members[sender.GUID()]
		ch.mu.RUnlock()
		if !member {
			return ChatErrNotMember
		}
		body := MessageChatBody(msg.Type, sender.GUID(), sender.Name(), msg.Text)
		for _, p := range ch.Members() {
			if err := deliver(p, body); err != nil {
				return err
			}
		}
		return nil

	case ChatTypeSay, ChatTypeYell, ChatTypeEmote:
		body := MessageChatBody(msg.Type, sender.GUID(), sender.Name(), msg.Text)
		for _, p := range everyone {
			if err := deliver(p, body); err != nil {
				return err
			}
		}
		return nil

	default:
		return ChatErrUnknownMessageType
	}
}

// MessageChatBody builds an SMSG_MESSAGECHAT body: type byte, sender GUID,
// NUL-terminated sender name, NUL-terminated text.
func MessageChatBody(t ChatMessageType, sender model.GUID, senderName, text string) []byte {
	buf := []byte{byte(t)}
	buf = appendGUID(buf, sender)
	buf = protocol.WriteCString(buf, senderName)
	buf = protocol.WriteCString(buf, text)
	return buf
}

// ChannelNotifyJoinedOrLeft builds the SMSG_CHANNEL_NOTIFY body sent to
// existing members when someone else joins or leaves:
// [notif_type:1][channel_name:cstring][target_guid:8] (§8 scenario 3/4).
func ChannelNotifyJoinedOrLeft(t ChatNotifyType, channelName string, target model.GUID) []byte {
	buf := []byte{byte(t)}
	buf = protocol.WriteCString(buf, channelName)
	buf = appendGUID(buf, target)
	return buf
}

// ChannelNotifyYou builds the SMSG_CHANNEL_NOTIFY body sent to the acting
// player itself on join/leave:
// [notif_type:1][channel_name:cstring][channel_id:4], with a single
// trailing zero byte when channel_id is 0 (§8 scenario 3/4).
func ChannelNotifyYou(t ChatNotifyType, channelName string, channelID uint32) []byte {
	buf := []byte{byte(t)}
	buf = protocol.WriteCString(buf, channelName)
	buf = protocol.PutUint32LE(buf, channelID)
	if channelID == 0 {
		buf = append(buf, 0)
	}
	return buf
}
