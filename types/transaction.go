package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Transaction is a submission request. Exactly one of Data and Extrinsic is
// set: Data is signed and submitted with the caller's app id, Extrinsic is an
// already signed extrinsic forwarded as-is.
type Transaction struct {
	Data      []byte `json:"data,omitempty"`
	Extrinsic []byte `json:"extrinsic,omitempty"`
}

// DecodeTransaction parses a boundary-encoded JSON transaction. A trailing
// NUL terminator is tolerated.
func DecodeTransaction(buf []byte) (Transaction, error) {
	buf = bytes.TrimRight(buf, "\x00")
	var tx Transaction
	if err := json.Unmarshal(buf, &tx); err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrTransactionDecode, err)
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrTransactionDecode, err)
	}
	return tx, nil
}

// Validate checks that exactly one payload kind is present.
func (tx Transaction) Validate() error {
	switch {
	case len(tx.Data) > 0 && len(tx.Extrinsic) > 0:
		return errors.New("transaction must carry either data or extrinsic, not both")
	case len(tx.Data) == 0 && len(tx.Extrinsic) == 0:
		return errors.New("transaction is empty")
	}
	return nil
}

// SubmitResponse is returned by the full node for an accepted transaction.
type SubmitResponse struct {
	Hash string `json:"hash"`
}

// TransactionResult is the only value a submission call returns across the
// boundary. It carries exactly one of a hash or an error description.
type TransactionResult struct {
	hash string
	err  string
}

// HashResult is a successful submission. A node answering without a hash
// yields an error result.
func HashResult(hash string) TransactionResult {
	if hash == "" {
		return ErrorResult("full node returned an empty transaction hash")
	}
	return TransactionResult{hash: hash}
}

// ErrorResult is a failed submission.
func ErrorResult(message string) TransactionResult {
	if message == "" {
		message = "unknown error"
	}
	return TransactionResult{err: message}
}

// Hash returns the transaction hash and whether the submission succeeded.
func (r TransactionResult) Hash() (string, bool) {
	return r.hash, r.err == ""
}

// Err returns the error description, empty on success.
func (r TransactionResult) Err() string {
	return r.err
}

// Encode returns the hash on success and an error envelope otherwise.
func (r TransactionResult) Encode() string {
	if r.err != "" {
		return ErrorJSON(r.err)
	}
	return r.hash
}
