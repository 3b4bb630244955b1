// Package pagination fetches every page of an offset/limit listing in
// parallel.
//
// PokeAPI list endpoints report the total number of items in "count". The
// fetcher reads the first page, derives the page count from that total and
// fans the remaining offsets out to a bounded worker pool. Results come back
// in listing order.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher[pokeapi.NamedAPIResource](api, pagination.DefaultConfig())
//	species, err := fetcher.FetchAll(ctx)
//	if err != nil {
//		// species still holds every page fetched before the failure
//	}
package pagination
