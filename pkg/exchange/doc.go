// Package exchange holds the value objects passed through contract
// validation: an inbound request, a candidate or final response, and the
// ordered case-insensitive header multimap both of them carry.
//
// Values are built fresh per exchange and are not shared between exchanges.
package exchange
