// Package link manages the vehicle link: driver registration, dialing and
// the shared session lock that serializes link access.
//
// The wire protocol itself is not implemented here. Protocol drivers register
// a DialFunc for their address scheme (the part before the first colon); the
// in-tree "sim" driver provides a deterministic vehicle for development and
// tests, and external driver modules register themselves the same way.
package link

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

// DialFunc establishes a connection for one address scheme.
type DialFunc func(ctx context.Context, address string) (core.Link, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DialFunc)
)

// Register makes a link driver available under the given address scheme.
// It panics on duplicate registration, mirroring database/sql semantics.
func Register(scheme string, dial DialFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if dial == nil {
		panic("link: Register dial is nil")
	}
	if _, dup := drivers[scheme]; dup {
		panic("link: Register called twice for scheme " + scheme)
	}
	drivers[scheme] = dial
}

// Dial connects using the driver registered for the address scheme.
func Dial(ctx context.Context, address string) (core.Link, error) {
	scheme, _, ok := strings.Cut(address, ":")
	if !ok {
		scheme = address
	}

	driversMu.RLock()
	dial, found := drivers[scheme]
	driversMu.RUnlock()

	if !found {
		return nil, fmt.Errorf("no link driver for scheme %q (registered: %s)", scheme, strings.Join(schemes(), ", "))
	}
	return dial(ctx, address)
}

func schemes() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	out := make([]string, 0, len(drivers))
	for s := range drivers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
