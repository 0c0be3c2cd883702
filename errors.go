package gnrf24

import (
	"github.com/pkg/errors"
)

var (
	ErrBus           = errors.New("bus transfer failed")
	ErrPin           = errors.New("pin operation failed")
	ErrComm          = errors.New("communication mismatch")
	ErrMaxRetries    = errors.New("maximum retries exceeded")
	ErrInvalidConfig = errors.New("invalid radio config")
)

// TransferError reports a failed driver operation. Kind is one of ErrBus,
// ErrPin, ErrComm or ErrMaxRetries, and errors.Is matches against it.
type TransferError struct {
	Kind error
	Op   string
	Err  error
}

func (e *TransferError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == e.Kind }

func busError(op string, err error) error {
	return &TransferError{Kind: ErrBus, Op: op, Err: err}
}

func pinError(op string, err error) error {
	return &TransferError{Kind: ErrPin, Op: op, Err: err}
}

func commError(op string, err error) error {
	return &TransferError{Kind: ErrComm, Op: op, Err: err}
}
