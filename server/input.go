package server

import (
	"tileworld/protocol"
)

// HandleFrame decodes a raw client frame and applies it. Frames that fail
// decoding are counted and dropped; the connection stays open.
func (s *Session) HandleFrame(raw []byte) ([]any, error) {
	in, err := protocol.Decode(raw)
	if err != nil {
		s.game.metrics.IncRejected()
		return nil, err
	}
	s.game.metrics.IncAccepted()
	return s.Handle(in)
}
