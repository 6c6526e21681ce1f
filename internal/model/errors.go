package model

import "errors"

// Ledger domain errors. Callers wrap them with context and match with errors.Is.
var (
	ErrInvalidCode                 = errors.New("invalid account code")
	ErrDuplicateCode               = errors.New("duplicate account code")
	ErrAccountNotFound             = errors.New("account not found")
	ErrParentNotFound              = errors.New("parent account not found")
	ErrNotPostable                 = errors.New("account is not a final account")
	ErrBridgeAccountMissing        = errors.New("bridge account missing")
	ErrUnknownAccountType          = errors.New("unknown account type")
	ErrUnresolvableTaggedRecipient = errors.New("unresolvable tagged recipient")
	ErrExpenseAccountRequired      = errors.New("expense account required")
	ErrUnsupportedLifecycle        = errors.New("no strategy for transaction lifecycle")
	ErrUnbalanced                  = errors.New("transaction does not balance")
	ErrCurrencyMismatch            = errors.New("currency mismatch")
	ErrUnknownCurrency             = errors.New("unknown currency")
	ErrJournalNotFound             = errors.New("journal not found")
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrDuplicateReference          = errors.New("duplicate transaction reference")
	ErrNotPending                  = errors.New("transaction is not pending")
	ErrAlreadyCompleted            = errors.New("transaction already completed")
	ErrAlreadyReversed             = errors.New("transaction already reversed")
	ErrInvalidTag                  = errors.New("invalid tag")
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrEmptyTransaction            = errors.New("transaction has no entries")
)
