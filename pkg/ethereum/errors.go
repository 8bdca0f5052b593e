package ethereum

import "fmt"

// ChainQueryError indicates a read call to the node failed.
type ChainQueryError struct {
	Op  string
	Err error
}

func (e *ChainQueryError) Error() string {
	return fmt.Sprintf("chain query %s: %s", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ChainQueryError) Unwrap() error {
	return e.Err
}

// SigningError indicates a transaction couldn't be signed.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing transaction: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *SigningError) Unwrap() error {
	return e.Err
}

// BroadcastError indicates the node rejected a signed transaction.
type BroadcastError struct {
	Err error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcasting transaction: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *BroadcastError) Unwrap() error {
	return e.Err
}
