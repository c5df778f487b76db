package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Success messages returned in the result envelope.
const (
	MsgRegistered      = "Client created with initial wallet"
	MsgRecharged       = "Recharge completed"
	MsgBalance         = "Balance retrieved"
	MsgReserved        = "Payment session created"
	MsgConfirmed       = "Payment confirmed"
	MsgStatementListed = "Transactions retrieved"
)

// LedgerFacade implements ports.LedgerService and ports.StatementReader.
// It holds no state of its own: each call validates the request, runs one
// service operation and shapes the outcome into a Result.
type LedgerFacade struct {
	clients      ports.ClientRegistry
	wallets      ports.WalletStore
	reservations ports.ReservationManager
	statements   ports.StatementService
	validate     *validator.Validate
	log          zerolog.Logger
}

// NewLedgerFacade creates a new LedgerFacade.
func NewLedgerFacade(
	clients ports.ClientRegistry,
	wallets ports.WalletStore,
	reservations ports.ReservationManager,
	statements ports.StatementService,
	log zerolog.Logger,
) *LedgerFacade {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &LedgerFacade{
		clients:      clients,
		wallets:      wallets,
		reservations: reservations,
		statements:   statements,
		validate:     v,
		log:          log,
	}
}

func (f *LedgerFacade) Register(ctx context.Context, req ports.RegisterRequest) domain.Result[ports.RegisterResponse] {
	return run(f, "register", MsgRegistered, func() (*ports.RegisterResponse, error) {
		if err := f.check(req); err != nil {
			return nil, err
		}
		return f.clients.Register(ctx, req)
	})
}

func (f *LedgerFacade) Recharge(ctx context.Context, req ports.RechargeRequest) domain.Result[ports.RechargeResponse] {
	return run(f, "recharge", MsgRecharged, func() (*ports.RechargeResponse, error) {
		if err := f.check(req.ClientKey); err != nil {
			return nil, err
		}
		return f.wallets.Recharge(ctx, req)
	})
}

func (f *LedgerFacade) GetBalance(ctx context.Context, req ports.ClientKey) domain.Result[ports.BalanceResponse] {
	return run(f, "getBalance", MsgBalance, func() (*ports.BalanceResponse, error) {
		if err := f.check(req); err != nil {
			return nil, err
		}
		return f.wallets.GetBalance(ctx, req)
	})
}

func (f *LedgerFacade) Reserve(ctx context.Context, req ports.ReserveRequest) domain.Result[ports.ReserveResponse] {
	return run(f, "reserve", MsgReserved, func() (*ports.ReserveResponse, error) {
		if err := f.check(req.ClientKey); err != nil {
			return nil, err
		}
		return f.reservations.Reserve(ctx, req)
	})
}

func (f *LedgerFacade) Confirm(ctx context.Context, req ports.ConfirmRequest) domain.Result[ports.ConfirmResponse] {
	return run(f, "confirm", MsgConfirmed, func() (*ports.ConfirmResponse, error) {
		if err := f.check(req); err != nil {
			return nil, err
		}
		return f.reservations.Confirm(ctx, req)
	})
}

func (f *LedgerFacade) ListTransactions(ctx context.Context, req ports.StatementRequest) domain.Result[ports.StatementResponse] {
	return run(f, "listTransactions", MsgStatementListed, func() (*ports.StatementResponse, error) {
		if err := f.check(req); err != nil {
			return nil, err
		}
		return f.statements.ListTransactions(ctx, req)
	})
}

// check runs struct validation and reports the first failing field.
func (f *LedgerFacade) check(req any) error {
	err := f.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperror.Validation(describeFieldError(fieldErrs[0]))
	}
	return apperror.Validation(err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// run executes fn and converts its outcome into a Result, recording metrics.
func run[T any](f *LedgerFacade, operation, successMsg string, fn func() (*T, error)) domain.Result[T] {
	start := time.Now()
	data, err := fn()

	var result domain.Result[T]
	if err != nil {
		appErr := apperror.From(err)
		result = domain.Fail[T](appErr.Code, appErr.Message)

		evt := f.log.Warn()
		if appErr.Kind == apperror.KindPersistence {
			evt = f.log.Error()
		}
		evt.Err(err).Str("operation", operation).Str("kind", string(appErr.Kind)).Msg("ledger operation failed")
	} else {
		result = domain.OK(successMsg, data)
	}

	metrics.ObserveOperation(operation, result.Code, time.Since(start))
	return result
}
