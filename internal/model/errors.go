package model

import "errors"

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindUpstreamUnavailable ErrorKind = "UpstreamUnavailable"
	KindNotFound            ErrorKind = "NotFound"
	KindMalformedResponse   ErrorKind = "MalformedResponse"
	KindNoUsableData        ErrorKind = "NoUsableData"
	KindSynthesisFailure    ErrorKind = "SynthesisFailure"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrNoUsableData        = errors.New("no usable data")
	ErrSynthesisFailure    = errors.New("synthesis failed")
)

// Fatal reports whether the kind stops a run.
func (k ErrorKind) Fatal() bool {
	return k == KindNoUsableData || k == KindSynthesisFailure
}

// Classify maps err onto the taxonomy. Unknown errors count as upstream failures.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoUsableData):
		return KindNoUsableData
	case errors.Is(err, ErrSynthesisFailure):
		return KindSynthesisFailure
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUpstreamUnavailable
	}
}
