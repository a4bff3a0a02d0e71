package api

import (
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/app/auth"
	funnelapp "github.com/burenotti/go_health_funnel/internal/app/funnel"
	"github.com/burenotti/go_health_funnel/internal/app/unitofwork"
	"log/slog"
	"net"
	"strconv"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// DBContext sets the database sessions are stored in. Backends without SQL
// use storage.Nop, which is also the default.
func DBContext(db storage.Beginner) Option {
	return func(s *Server) {
		s.db = db
	}
}

func SessionStorage(factory funnelapp.StorageFactory) Option {
	return func(s *Server) {
		s.sessions = factory
	}
}

func FunnelService(service *funnelapp.Service) Option {
	return func(s *Server) {
		s.funnelService = service
	}
}

func Authorizer(a *auth.Authorizer) Option {
	return func(s *Server) {
		s.authorizer = a
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}
