// Package session wraps the remote listing site behind the operations the
// harvest pipeline needs: load a page, fill the locality filter, submit the
// search, walk the result pages and read what is currently shown.
package session

import (
	"context"
	"errors"
	"fmt"

	"auction-harvester/extraction"
)

// Driver is a single browsing session. It is not safe for concurrent use.
//
// Pagination methods act on the result pages produced by SubmitSearch and
// AdvancePage. Navigate changes the current page (e.g. to a detail page)
// without moving the result cursor, so the caller can visit detail pages in
// between and still continue with the next result page.
type Driver interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	Navigate(ctx context.Context, url string) error
	ApplyLocalityFilter(ctx context.Context, value string) error
	SubmitSearch(ctx context.Context) error

	HasNextPage(ctx context.Context) (bool, error)
	AdvancePage(ctx context.Context) error

	// CurrentPageContent returns the page last loaded by any operation.
	CurrentPageContent(ctx context.Context) (*extraction.PageContent, error)

	// OpenTab switches the current page to the tab with the given label.
	// It reports false, without error, when the page has no such tab.
	OpenTab(ctx context.Context, label string) (bool, error)
}

var (
	ErrNotOpen    = errors.New("session not open")
	ErrNoResults  = errors.New("no search results loaded")
	ErrNoNextPage = errors.New("no next page")
	ErrNoForm     = errors.New("search form not found")
)

// SessionError is returned by every Driver operation that fails.
type SessionError struct {
	Op  string
	URL string
	Err error
}

func (e *SessionError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("session %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func sessionErr(op, url string, err error) error {
	return &SessionError{Op: op, URL: url, Err: err}
}
