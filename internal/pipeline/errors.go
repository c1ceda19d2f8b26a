package pipeline

import (
	"errors"

	"jobsync-engine/internal/payload"
	"jobsync-engine/internal/signature"
)

// Classified rejections the caller can branch on. Signature and payload
// failures surface here so the HTTP layer maps them to the response
// contract without string matching.
var (
	ErrMissingSignature = errors.New("pipeline: signature header is required")
	ErrInvalidSignature = signature.ErrInvalid
	ErrMissingSecret    = signature.ErrMissingSecret
	ErrMalformedPayload = payload.ErrMalformed
)
