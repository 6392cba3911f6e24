package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTickerNotFound means no listing row matched the company name.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrEmptySeries means the provider returned no trading days for the range.
	ErrEmptySeries = errors.New("no price data in range")
	// ErrInvalidRange means the requested dates could not be used.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrUnknownMarket means the market flag is not kospi or kosdaq.
	ErrUnknownMarket = errors.New("unknown market")
	// ErrInvalidRequest means a required lookup field was missing or blank.
	ErrInvalidRequest = errors.New("invalid request")
)

// UpstreamError is a network or service failure talking to an external source.
type UpstreamError struct {
	Source     string // "kind" or "yahoo"
	StatusCode int    // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error: %s (status: %d)", e.Source, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Source, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Pipeline stage names.
const (
	StageValidate = "validate"
	StageResolve  = "resolve"
	StageFetch    = "fetch"
)

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
