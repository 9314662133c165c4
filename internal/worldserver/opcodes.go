package worldserver

// World protocol opcodes (§6). Client→server opcodes are 4 bytes on the
// wire; server→client opcodes are 2 bytes. Values are arbitrary but fixed
// once assigned (§9: "enum values are wire constants, never renumbered").
const (
	SMsgAuthChallenge   uint16 = 0x01EC
	CMsgAuthSession     uint32 = 0x01ED
	SMsgAuthResponse    uint16 = 0x01EE

	CMsgCharEnum        uint32 = 0x0037
	SMsgCharEnum        uint16 = 0x003B
	CMsgCharCreate      uint32 = 0x0036
	SMsgCharCreate      uint16 = 0x003A
	CMsgCharDelete      uint32 = 0x0038
	SMsgCharDelete      uint16 = 0x003C

	CMsgPlayerLogin     uint32 = 0x003D
	SMsgLoginVerifyWorld uint16 = 0x0236

	CMsgNameQuery       uint32 = 0x0050
	SMsgNameQuery       uint16 = 0x0051

	CMsgMove            uint32 = 0x00B5
	MsgMoveWorldportAck uint32 = 0x00DC

	CMsgMessageChat     uint32 = 0x0095
	SMsgMessageChat     uint16 = 0x0096
	CMsgJoinChannel     uint32 = 0x0097
	CMsgLeaveChannel    uint32 = 0x0098
	SMsgChannelNotify   uint16 = 0x0099

	SMsgUpdateObject    uint16 = 0x00A9
	SMsgDestroyObject   uint16 = 0x00AA

	SMsgCharacterLoginFailed uint16 = 0x0041
)

// CharEnumResult carries the outcome of a character-management request;
// the CHAR_CREATE and CHAR_DELETE responses use the same values (§6).
type CharEnumResult byte

const (
	CharEnumOK CharEnumResult = iota
	CharEnumFailed
)

// ChatNotifyType is the SMSG_CHANNEL_NOTIFY sub-type byte (§4.7).
type ChatNotifyType byte

const (
	ChatNotifyJoined ChatNotifyType = iota
	ChatNotifyLeft
	ChatNotifyYouJoined
	ChatNotifyYouLeft
	ChatNotifyWrongPassword
)

// ChatMessageType is the CMSG/SMSG_MESSAGECHAT type byte (§4.7).
type ChatMessageType byte

const (
	ChatTypeSay ChatMessageType = iota
	ChatTypeYell
	ChatTypeEmote
	ChatTypeChannel
)
