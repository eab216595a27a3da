package domain

import (
	"context"
	"time"
)

// Repositories is the full set of query groups bound to one connection or
// one transaction.
type Repositories struct {
	Companies   CompanyRepository
	Branches    BranchRepository
	ItemTypes   ItemTypeRepository
	Inspections InspectionRepository
	History     HistoryRepository
	Current     CurrentInventoryRepository
}

// Store is the storage capability injected into every use case.
type Store interface {
	// Repositories returns pooled, non-transactional repositories.
	Repositories() Repositories
	// Transaction runs fn atomically. Any error returned by fn rolls back
	// every write made through the repositories it was given.
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
}

// Clock supplies the server's current time; today is its local date.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Today returns the clock's local calendar date.
func Today(c Clock) Date {
	return DateOf(c.Now().Local())
}
