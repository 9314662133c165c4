package authserver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/udisondev/aethermoor/internal/authserver/serverpackets"
	"github.com/udisondev/aethermoor/internal/config"
	"github.com/udisondev/aethermoor/internal/crypto"
	"github.com/udisondev/aethermoor/internal/protocol"
)

// Handler processes auth packets. Stateless and shared across connections;
// all per-connection state lives on Client.
type Handler struct {
	accounts AccountRepository
	realms   []config.RealmEntry
}

// NewHandler creates a packet handler.
func NewHandler(accounts AccountRepository, realms []config.RealmEntry) *Handler {
	return &Handler{accounts: accounts, realms: realms}
}

// HandlePacket dispatches a decoded packet to the appropriate handler.
// Writes the response into buf. Returns n, the number of bytes written (0
// if nothing should be sent), and ok, false if the connection should be
// closed after the response is flushed.
func (h *Handler) HandlePacket(ctx context.Context, client *Client, opcode byte, body, buf []byte) (int, bool, error) {
	switch opcode {
	case protocol.OpLoginChallenge:
		return h.handleChallenge(ctx, client, body, buf)
	case protocol.OpLoginProof:
		return h.handleProof(ctx, client, body, buf)
	case protocol.OpRealmList:
		return h.handleRealmlist(client, buf)
	default:
		slog.Warn("unknown auth opcode", "opcode", fmt.Sprintf("0x%02X", opcode), "client", client.IP())
		return 0, true, nil
	}
}

// handleChallenge processes LOGIN_CHALLENGE: INIT -> SENT_CHALLENGE on
// success, CLOSED otherwise.
func (h *Handler) handleChallenge(ctx context.Context, client *Client, body, buf []byte) (int, bool, error) {
	if client.State() != StateInit {
		slog.Warn("LOGIN_CHALLENGE in wrong state", "state", client.State(), "client", client.IP())
		return 0, true, nil
	}

	name, err := parseChallengeName(body)
	if err != nil {
		client.SetState(StateClosed)
		return 0, false, fmt.Errorf("parsing LOGIN_CHALLENGE: %w", err)
	}

	acc, err := h.accounts.AccountByName(ctx, name)
	if err != nil {
		slog.Error("looking up account", "err", err, "client", client.IP())
		client.SetState(StateClosed)
		return serverpackets.ChallengeFail(buf, protocol.LoginFailUnknownAccount), false, nil
	}
	if acc == nil {
		slog.Warn("unknown account", "login", name, "client", client.IP())
		client.SetState(StateClosed)
		return serverpackets.ChallengeFail(buf, protocol.LoginFailUnknownAccount), false, nil
	}

	b, B, err := crypto.ServerChallenge(acc.Verifier)
	if err != nil {
		slog.Error("computing server challenge", "err", err, "login", name)
		client.SetState(StateClosed)
		return serverpackets.ChallengeFail(buf, protocol.LoginFailSuspended), false, nil
	}

	client.SetAccount(acc)
	client.SetChallenge(b, B)
	client.SetState(StateSentChallenge)

	slog.Info("login challenge sent", "login", name, "client", client.IP())
	return serverpackets.Challenge(buf, B, acc.Salt), true, nil
}

// parseChallengeName extracts the account name, the final NUL-terminated
// field of the LOGIN_CHALLENGE body.
func parseChallengeName(body []byte) (string, error) {
	idx := -1
	for i, b := range body {
		if b == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("missing account name terminator")
	}
	return string(body[:idx]), nil
}

// handleProof processes LOGIN_PROOF: SENT_CHALLENGE -> SENT_PROOF on
// success, CLOSED on failure.
func (h *Handler) handleProof(ctx context.Context, client *Client, body, buf []byte) (int, bool, error) {
	if client.State() != StateSentChallenge {
		slog.Warn("LOGIN_PROOF in wrong state", "state", client.State(), "client", client.IP())
		return 0, true, nil
	}
	if len(body) < crypto.KeyLength+20 {
		client.SetState(StateClosed)
		return 0, false, fmt.Errorf("LOGIN_PROOF body too short: %d bytes", len(body))
	}

	A := body[:crypto.KeyLength]
	clientM1 := body[crypto.KeyLength : crypto.KeyLength+20]

	acc := client.Account()
	b, _ := client.Challenge()

	sess, err := crypto.SessionKey(A, b, acc.Verifier)
	if err != nil {
		slog.Warn("invalid client ephemeral", "login", acc.Login, "client", client.IP())
		client.SetState(StateClosed)
		return serverpackets.ProofFail(buf, protocol.LoginFailIncorrectPass), false, nil
	}

	expectedM1 := crypto.ClientProof(acc.Salt[:], sess.A, sess.B, sess.K, acc.Login)
	if subtle.ConstantTimeCompare(expectedM1, clientM1) != 1 {
		slog.Warn("client proof mismatch", "login", acc.Login, "client", client.IP())
		client.SetState(StateClosed)
		return serverpackets.ProofFail(buf, protocol.LoginFailIncorrectPass), false, nil
	}

	M2 := crypto.ServerProof(sess.A, expectedM1, sess.K)
	client.SetSessionKey(sess.K)
	client.SetState(StateSentProof)

	if err := h.accounts.StoreSession(ctx, acc.Login, sess.K); err != nil {
		slog.Error("storing login session", "err", err, "login", acc.Login)
	}
	if err := h.accounts.UpdateLastLogin(ctx, acc.Login, client.IP()); err != nil {
		slog.Error("updating last login", "err", err, "login", acc.Login)
	}

	slog.Info("login proof accepted", "login", acc.Login, "client", client.IP())
	return serverpackets.Proof(buf, M2), true, nil
}

// handleRealmlist processes REALMLIST. Does not change connection state.
func (h *Handler) handleRealmlist(client *Client, buf []byte) (int, bool, error) {
	return serverpackets.Realmlist(buf, h.realms), true, nil
}
