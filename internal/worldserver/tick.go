package worldserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/aethermoor/internal/model"
	"github.com/udisondev/aethermoor/internal/protocol"
)

const (
	updateTickInterval = 100 * time.Millisecond
	channelGCInterval  = 30 * time.Second
)

// RunTickLoop runs the server's periodic background work until ctx is
// cancelled: the object-update tick and channel garbage collection, the
// two tasks §5 assigns to the shared background-worker pool rather than
// any one connection's dispatch goroutine.
func (s *Server) RunTickLoop(ctx context.Context) error {
	updateTicker := time.NewTicker(updateTickInterval)
	defer updateTicker.Stop()
	gcTicker := time.NewTicker(channelGCInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updateTicker.C:
			s.tickUpdates()
		case <-gcTicker.C:
			s.chat.GC()
		}
	}
}

func (s *Server) tickUpdates() {
	for _, mz := range s.registry.ActiveMapZones() {
		players := s.registry.PlayersInMap(mz.Map, mz.Zone)
		if len(players) == 0 {
			continue
		}
		s.engine.TickMapZone(mz.Map, mz.Zone, players, s.sendUpdateBody)
	}
}

func (s *Server) sendUpdateBody(p *model.Player, body []byte) error {
	c := s.clients.Get(p.GUID())
	if c == nil {
		return nil
	}
	pkt, err := protocol.AppendServerPacket(nil, c.Cipher(), SMsgUpdateObject, body)
	if err != nil {
		slog.Warn("framing update packet failed", "player", p.Name(), "err", err)
		return err
	}
	return c.Send(pkt)
}
