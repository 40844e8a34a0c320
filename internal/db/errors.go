package db

import (
	"errors"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
)

const (
	CodeUnknownDatabase = "DB_UNKNOWN_DATABASE"
	CodeLoginFailed     = "DB_LOGIN_FAILED"
	CodeConnection      = "DB_CONNECTION"
)

// Error classifies a driver failure by server error number instead of
// matching on message text.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Server error numbers, see sys.messages.
const (
	numCannotOpenDatabase = 4060
	numLoginFailed        = 18456
	numLoginFailedTrust   = 18452
)

func Classify(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Number {
		case numCannotOpenDatabase:
			return &Error{Code: CodeUnknownDatabase, Message: sqlErr.Message, Err: err}
		case numLoginFailed, numLoginFailedTrust:
			return &Error{Code: CodeLoginFailed, Message: sqlErr.Message, Err: err}
		}
		return err
	}

	return &Error{Code: CodeConnection, Message: err.Error(), Err: err}
}
