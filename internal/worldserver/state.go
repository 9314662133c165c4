package worldserver

// ConnectionState is a world connection's position in the post-auth
// session lifecycle (§4.4).
type ConnectionState int32

const (
	StateInit          ConnectionState = iota // TCP accepted, AUTH_CHALLENGE not yet sent
	StateAuthChallenge                        // AUTH_CHALLENGE sent, awaiting CMSG_AUTH_SESSION
	StateAuthSession                           // session digest verified, awaiting char enum/create/delete
	StateCharList                             // char list requested at least once
	StateInWorld                               // player instantiated, full opcode surface accepted
	StateClosed                                // terminal: protocol error, auth failure, or disconnect
)

func (s ConnectionState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateAuthChallenge:
		return "AUTH_CHALLENGE"
	case StateAuthSession:
		return "AUTH_SESSION"
	case StateCharList:
		return "CHAR_LIST"
	case StateInWorld:
		return "IN_WORLD"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
