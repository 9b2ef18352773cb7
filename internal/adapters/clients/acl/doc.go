// Package acl is the anti-corruption layer between downstream HTTP APIs and
// the domain. Adapters here own the external DTOs, translate them into
// domain types, and turn transport failures and HTTP statuses into domain
// errors, so nothing outside this package sees a foreign shape.
//
// Building an adapter:
//
//  1. Declare the external DTO unexported in the adapter file.
//  2. Embed [BaseAdapter] to get [BaseAdapter.Get] with error mapping.
//  3. Decode with [DecodeResponse] and convert with [TranslateSlice].
//
// Status mapping used by [MapHTTPError]:
//
//	404          -> domain.ErrNotFound
//	409          -> domain.ErrConflict
//	400, 422     -> domain.ErrValidation
//	401, 403     -> domain.ErrUnavailable (credentials are not ours to fix)
//	429, 5xx     -> domain.ErrUnavailable
//
// Client failures ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded],
// network errors) also become domain.ErrUnavailable.
package acl
