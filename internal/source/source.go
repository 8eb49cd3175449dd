package source

import (
	"context"
	"errors"

	"github.com/studiowebux/perfscope/internal/types"
)

var (
	// ErrTabUnreachable is returned when no debuggable tab answers
	ErrTabUnreachable = errors.New("tab unreachable")
	// ErrUnsupportedScheme is returned when the tab is not an http(s) page
	ErrUnsupportedScheme = errors.New("unsupported page scheme")
	// ErrNoNavigation is returned when the page produced no timing data at all
	ErrNoNavigation = errors.New("no navigation timing available")
)

// Source produces one timing snapshot per call
type Source interface {
	// Name identifies the source in reports and logs
	Name() string
	// Fetch retrieves a snapshot. It may block on I/O and honours ctx.
	Fetch(ctx context.Context) (*types.Snapshot, error)
}
