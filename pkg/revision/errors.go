package revision

import (
	"errors"
	"fmt"
)

var (
	// ErrRevisionNotFound the requested id is not inside the retained window
	// ErrRevisionNotFound 请求的版本不在保留窗口内
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrInvariantViolation the ledger is corrupt or the patcher failed
	// ErrInvariantViolation 账本损坏或补丁计算失败
	ErrInvariantViolation = errors.New("revision ledger invariant violated")

	// ErrNilLedger a nil ledger was passed
	ErrNilLedger = errors.New("revision: nil ledger")
)

// InvariantError describes a broken ledger. It matches ErrInvariantViolation.
// InvariantError 描述账本不一致，可通过 errors.Is 匹配 ErrInvariantViolation
type InvariantError struct {
	Op         string // record, reconstruct, verify
	RevisionID int64
	Reason     string
	Err        error // Patcher cause, may be nil
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("%s: %s at revision %d: %s", ErrInvariantViolation.Error(), e.Op, e.RevisionID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// notFound wraps ErrRevisionNotFound with the requested id.
func notFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrRevisionNotFound, id)
}
