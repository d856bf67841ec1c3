package transfer

import "fmt"

// Causes carried inside a TransferError.
var (
	ErrNilURL              = fmt.Errorf("nil URL")
	ErrOffsetMismatch      = fmt.Errorf("local file length does not match resume offset")
	ErrRangeIgnored        = fmt.Errorf("server ignored the range request")
	ErrRangeNotSatisfiable = fmt.Errorf("server rejected the resume range")
	ErrContentRange        = fmt.Errorf("unexpected Content-Range")
	ErrUnexpectedStatus    = fmt.Errorf("unexpected status code")
	ErrShortBody           = fmt.Errorf("body shorter than Content-Length")
)
