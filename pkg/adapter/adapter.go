// Package adapter provides the database adapter contract, a shared
// database/sql implementation, and the registry that maps adapter names to
// factories.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Type aliases so callers can stay within this package.
type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Session is an alias for core.Session.
	Session = core.Session

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// OpenSession acquires a session from a and runs the adapter's per-session
// initialisation, if it has any. The session is closed again when
// initialisation fails.
func OpenSession(ctx context.Context, a Adapter) (Session, error) {
	s, err := a.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if init, ok := a.(core.SessionInitializer); ok {
		if err := init.InitSession(ctx, s); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// ConvertValue passes v through the adapter's value converter, if it has one.
func ConvertValue(a Adapter, v any) any {
	if conv, ok := a.(core.ValueConverter); ok {
		return conv.ConvertValue(v)
	}
	return v
}
