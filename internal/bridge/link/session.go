package link

import (
	"sync"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

// Session holds the current link behind one exclusion lock. The underlying
// link is not safe for concurrent use, so receives and sends serialize here;
// command executors and the ingest loop share one Session.
type Session struct {
	mu sync.Mutex
	l  core.Link
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Set installs a freshly connected link.
func (s *Session) Set(l core.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l = l
}

// Clear closes and drops the current link, if any.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.l != nil {
		_ = s.l.Close()
		s.l = nil
	}
}

// Connected reports whether a link is currently installed.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l != nil
}

// Recv waits up to timeout for the next message. The lock is held for the
// duration of the receive; concurrent sends queue behind it.
func (s *Session) Recv(timeout time.Duration) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.l == nil {
		return nil, core.ErrLinkUnready
	}
	return s.l.Recv(timeout)
}

// Send transmits the given commands back to back under one lock acquisition.
func (s *Session) Send(cmds ...core.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.l == nil {
		return core.ErrLinkUnready
	}
	for _, cmd := range cmds {
		if err := s.l.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// ModeTable returns the link's mode-name table.
func (s *Session) ModeTable() (map[string]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.l == nil {
		return nil, core.ErrLinkUnready
	}
	return s.l.ModeTable(), nil
}

// Target returns the link's target system and component ids.
func (s *Session) Target() (system, component uint8, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.l == nil {
		return 0, 0, core.ErrLinkUnready
	}
	return s.l.TargetSystem(), s.l.TargetComponent(), nil
}
