// Package rpc carries ledger operations between the REST gateway and the
// ledger service as {"operation", "fields"} envelopes over HTTP.
package rpc

// Path is the single endpoint of the ledger service.
const Path = "/rpc"

// Operation names.
const (
	OpRegister         = "register"
	OpRecharge         = "recharge"
	OpGetBalance       = "getBalance"
	OpReserve          = "reserve"
	OpConfirm          = "confirm"
	OpListTransactions = "listTransactions"
)

// Field names of the flat field map.
const (
	FieldNames     = "nombres"
	FieldDocument  = "documento"
	FieldEmail     = "email"
	FieldPhone     = "telefono"
	FieldAmount    = "monto"
	FieldSessionID = "session_id"
	FieldToken     = "token"
	FieldPage      = "page"
	FieldPageSize  = "page_size"
)

// Request is the body posted to Path. Field values are strings when sent by
// Client; the server also accepts JSON numbers.
type Request struct {
	Operation string         `json:"operation"`
	Fields    map[string]any `json:"fields"`
}
