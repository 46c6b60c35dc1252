package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConnectionRegistrySuite struct {
	suite.Suite
	registry *ConnectionRegistry
}

func TestConnectionRegistrySuite(t *testing.T) {
	suite.Run(t, new(ConnectionRegistrySuite))
}

func (s *ConnectionRegistrySuite) SetupTest() {
	s.registry = NewConnectionRegistry()
}

func (s *ConnectionRegistrySuite) TestAddTracksConnection() {
	conn := newFakeConn("c1", "user-1")
	s.registry.Add(conn)

	conns := s.registry.ConnectionsOf("user-1")
	s.Len(conns, 1)
	s.Equal(ConnectionID("c1"), conns[0].ID())
}

func (s *ConnectionRegistrySuite) TestAddIsIdempotent() {
	conn := newFakeConn("c1", "user-1")
	s.registry.Add(conn)
	s.registry.Add(conn)

	s.Len(s.registry.ConnectionsOf("user-1"), 1)
}

func (s *ConnectionRegistrySuite) TestMultipleConnectionsPerUser() {
	s.registry.Add(newFakeConn("c1", "user-1"))
	s.registry.Add(newFakeConn("c2", "user-1"))

	s.Len(s.registry.ConnectionsOf("user-1"), 2)
}

func (s *ConnectionRegistrySuite) TestRemoveDropsConnection() {
	tab1 := newFakeConn("c1", "user-1")
	tab2 := newFakeConn("c2", "user-1")
	s.registry.Add(tab1)
	s.registry.Add(tab2)

	s.registry.Remove(tab1)

	conns := s.registry.ConnectionsOf("user-1")
	s.Len(conns, 1)
	s.Equal(ConnectionID("c2"), conns[0].ID())
}

func (s *ConnectionRegistrySuite) TestRemovingLastConnectionRemovesUser() {
	conn := newFakeConn("c1", "user-1")
	s.registry.Add(conn)
	s.registry.Remove(conn)

	s.Empty(s.registry.ConnectionsOf("user-1"))
	s.False(s.registry.HasUser("user-1"))
}

func (s *ConnectionRegistrySuite) TestRemoveUnknownConnectionIsNoop() {
	s.registry.Remove(newFakeConn("c1", "user-1"))
	s.False(s.registry.HasUser("user-1"))
}

func (s *ConnectionRegistrySuite) TestGetByID() {
	conn := newFakeConn("c1", "user-1")
	s.registry.Add(conn)

	got, ok := s.registry.Get("c1")
	s.True(ok)
	s.Equal(conn.ID(), got.ID())

	_, ok = s.registry.Get("missing")
	s.False(ok)
}

func (s *ConnectionRegistrySuite) TestConcurrentAddRemove() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := newFakeConn(ConnectionID(fmt.Sprintf("c%d", i)), "user-1")
			s.registry.Add(conn)
			_ = s.registry.ConnectionsOf("user-1")
			s.registry.Remove(conn)
		}(i)
	}
	wg.Wait()

	s.False(s.registry.HasUser("user-1"))
}
