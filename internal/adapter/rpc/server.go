package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Server dispatches RPC envelopes to the ledger facade. Domain outcomes are
// always answered with HTTP 200 and the result envelope.
type Server struct {
	ledger     ports.LedgerService
	statements ports.StatementReader
	log        zerolog.Logger
}

func NewServer(ledger ports.LedgerService, statements ports.StatementReader, log zerolog.Logger) *Server {
	return &Server{ledger: ledger, statements: statements, log: log}
}

// Handle serves POST Path.
func (s *Server) Handle(c *gin.Context) {
	var req Request
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		response.Error(c, apperror.Validation("malformed rpc envelope"))
		return
	}

	f := fields(req.Fields)
	ctx := c.Request.Context()

	var result any
	switch req.Operation {
	case OpRegister:
		result = s.ledger.Register(ctx, ports.RegisterRequest{
			Names:    f.str(FieldNames),
			Document: f.str(FieldDocument),
			Email:    f.str(FieldEmail),
			Phone:    f.str(FieldPhone),
		})
	case OpRecharge:
		amount, err := f.amount()
		if err != nil {
			result = failed[ports.RechargeResponse](err)
			break
		}
		result = s.ledger.Recharge(ctx, ports.RechargeRequest{ClientKey: f.key(), Amount: amount})
	case OpGetBalance:
		result = s.ledger.GetBalance(ctx, f.key())
	case OpReserve:
		amount, err := f.amount()
		if err != nil {
			result = failed[ports.ReserveResponse](err)
			break
		}
		result = s.ledger.Reserve(ctx, ports.ReserveRequest{ClientKey: f.key(), Amount: amount})
	case OpConfirm:
		sessionID, err := f.uuid(FieldSessionID)
		if err != nil {
			result = failed[ports.ConfirmResponse](err)
			break
		}
		result = s.ledger.Confirm(ctx, ports.ConfirmRequest{SessionID: sessionID, Token: f.str(FieldToken)})
	case OpListTransactions:
		page, err := f.int(FieldPage)
		if err != nil {
			result = failed[ports.StatementResponse](err)
			break
		}
		pageSize, err := f.int(FieldPageSize)
		if err != nil {
			result = failed[ports.StatementResponse](err)
			break
		}
		result = s.statements.ListTransactions(ctx, ports.StatementRequest{ClientKey: f.key(), Page: page, PageSize: pageSize})
	default:
		s.log.Warn().Str("operation", req.Operation).Msg("rpc: unknown operation")
		response.Error(c, apperror.Validation(fmt.Sprintf("unknown operation %q", req.Operation)))
		return
	}

	c.Header("X-Request-ID", response.RequestID(c))
	c.JSON(http.StatusOK, result)
}

func failed[T any](err error) domain.Result[T] {
	appErr := apperror.From(err)
	return domain.Fail[T](appErr.Code, appErr.Message)
}

// fields reads loosely typed values out of the flat field map.
type fields map[string]any

func (f fields) str(name string) string {
	switch v := f[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (f fields) key() ports.ClientKey {
	return ports.ClientKey{Document: f.str(FieldDocument), Phone: f.str(FieldPhone)}
}

func (f fields) amount() (decimal.Decimal, error) {
	raw := f.str(FieldAmount)
	if raw == "" {
		return decimal.Zero, apperror.Validation(FieldAmount + " is required")
	}
	amount, err := domain.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation(FieldAmount + " must be a number")
	}
	return amount, nil
}

func (f fields) uuid(name string) (uuid.UUID, error) {
	raw := f.str(name)
	if raw == "" {
		return uuid.Nil, apperror.Validation(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(name + " must be a valid UUID")
	}
	return id, nil
}

// int returns 0 for an absent field.
func (f fields) int(name string) (int, error) {
	raw := f.str(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name + " must be an integer")
	}
	return n, nil
}

// encodeFields builds the wire field map, dropping empty values.
func encodeFields(pairs ...string) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out[pairs[i]] = pairs[i+1]
		}
	}
	return out
}

func marshalRequest(op string, f map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Request{Operation: op, Fields: f}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
