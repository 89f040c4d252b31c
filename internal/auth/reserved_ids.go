package auth

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

const reservedIDsRefreshInterval = 24 * time.Hour

// ReservedUserIdChecker implements usecase.ReservedUserIdCheckerApi over a
// newline-delimited text file, refreshed at most once per
// reservedIDsRefreshInterval. Grounded on reserved_uids_reader.rs: no
// library offers "RW-locked TTL-refreshed set from a flat file", so it
// stays a direct sync.RWMutex/os.ReadFile port.
type ReservedUserIdChecker struct {
	path string

	mu             sync.RWMutex
	reservedIDs    map[model.UserId]struct{}
	nextUpdateTime time.Time
}

// NewReservedUserIdChecker loads path immediately, failing construction if
// it can't be read: a missing reserved-word list should fail startup, not
// the first permission grant.
func NewReservedUserIdChecker(path string) (*ReservedUserIdChecker, error) {
	c := &ReservedUserIdChecker{path: path}
	if err := c.refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ReservedUserIdChecker) refresh() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return apperr.Wrap(apperr.External, "failed to read reserved user id list", err)
	}

	ids := make(map[model.UserId]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ids[model.UserId(line)] = struct{}{}
	}

	c.mu.Lock()
	c.reservedIDs = ids
	c.nextUpdateTime = time.Now().Add(reservedIDsRefreshInterval)
	c.mu.Unlock()
	return nil
}

// CheckIfReserved refreshes the set first if its TTL has elapsed, then
// reports whether id is on it.
func (c *ReservedUserIdChecker) CheckIfReserved(ctx context.Context, id model.UserId) (bool, error) {
	c.mu.RLock()
	stale := !time.Now().Before(c.nextUpdateTime)
	c.mu.RUnlock()

	if stale {
		if err := c.refresh(); err != nil {
			return false, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, reserved := c.reservedIDs[id]
	return reserved, nil
}
