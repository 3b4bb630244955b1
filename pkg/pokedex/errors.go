package pokedex

import (
	"errors"
	"fmt"
)

// User-facing messages.
const (
	MsgListFailed    = "Failed to fetch Pokémon"
	MsgDetailFailed  = "Failed to fetch Pokémon details"
	MsgSearchFailed  = "Failed to search Pokémon. Please try again."
	MsgNoDescription = "No description available."
)

var (
	// ErrInvalidRequest is returned for malformed page requests.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyQuery is returned when a search term is blank; callers clear
	// the active search.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrBusy is returned when a feed load is already in flight.
	ErrBusy = errors.New("load already in progress")

	// ErrExhausted is returned when a feed has loaded every item.
	ErrExhausted = errors.New("all pokemon loaded")

	// ErrSearchFailed wraps search failures other than a miss.
	ErrSearchFailed = errors.New(MsgSearchFailed)
)

// NotFoundError reports a search or lookup that matched no Pokémon.
type NotFoundError struct {
	Term string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No Pokémon found matching %q", e.Term)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
