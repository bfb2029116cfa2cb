// Package server exposes import, record editing and export of workbooks
// over HTTP. Each uploaded workbook becomes a session addressed by a UUID.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Tegakist/DSS/pkg/flowsheet"
	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
	"github.com/Tegakist/DSS/pkg/flowsheet/store"
)

// DefaultMaxUpload caps the size of an uploaded workbook.
const DefaultMaxUpload = 32 << 20

type session struct {
	mu      sync.Mutex
	id      string
	name    string
	created time.Time
	flow    *flowsheet.Session
}

// Server holds the open sessions.
type Server struct {
	layout    *mapper.Layout
	store     store.Store
	maxUpload int64

	mu       sync.RWMutex
	sessions map[string]*session
}

// Option configures a Server.
type Option func(*Server)

// WithStore saves the record list of a session after every change.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMaxUpload overrides DefaultMaxUpload.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// New creates a server that maps workbooks with the given layout.
func New(l *mapper.Layout, opts ...Option) *Server {
	s := &Server{
		layout:    l,
		maxUpload: DefaultMaxUpload,
		sessions:  map[string]*session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) open(name string, flow *flowsheet.Session) *session {
	sess := &session{
		id:      uuid.NewString(),
		name:    name,
		created: time.Now(),
		flow:    flow,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// persist saves the records of a session. Stores that implement
// store.Scoper keep one list per session id; any other store holds the list
// of the session saved last. The caller holds sess.mu.
func (s *Server) persist(ctx context.Context, sess *session) {
	if s.store == nil {
		return
	}
	st := s.store
	if sc, ok := st.(store.Scoper); ok {
		st = sc.Scope(sess.id)
	}
	if err := st.Save(ctx, sess.flow.Records()); err != nil {
		log.WithFields(log.Fields{
			"session": sess.id,
		}).WithError(err).Warn("Failed to save records")
	}
}
