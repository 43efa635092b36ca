package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// fakeAdapter hands out fakeSessions and records how often it was asked.
type fakeAdapter struct {
	mu       sync.Mutex
	opens    int
	openErr  func(n int) error
	execErr  func(stmt string) error
	code     string
	sessions []*fakeSession
}

func (a *fakeAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }
func (a *fakeAdapter) Close() error                                      { return nil }
func (a *fakeAdapter) DialectName() string                               { return "fake" }

func (a *fakeAdapter) OpenSession(context.Context) (core.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opens++
	if a.openErr != nil {
		if err := a.openErr(a.opens); err != nil {
			return nil, err
		}
	}
	s := &fakeSession{execErr: a.execErr}
	a.sessions = append(a.sessions, s)
	return s, nil
}

func (a *fakeAdapter) ErrorCode(err error) string {
	if err != nil {
		return a.code
	}
	return ""
}

type fakeSession struct {
	execErr func(stmt string) error
	execs   []string
	closed  bool
	broken  bool
}

func (s *fakeSession) Exec(_ context.Context, stmt string) error {
	if s.closed || s.broken {
		return errors.New("sql: connection is already closed")
	}
	s.execs = append(s.execs, stmt)
	if s.execErr != nil {
		return s.execErr(stmt)
	}
	return nil
}

func (s *fakeSession) Query(context.Context, string) (*core.Rows, error) {
	return nil, errors.New("fake sessions do not return rows")
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}
