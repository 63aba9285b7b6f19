package llm

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrQuotaExceeded is the rate-limit class of backend failure.
	ErrQuotaExceeded = errors.New("QUOTA_EXCEEDED")
	// ErrBackend is any other generation failure.
	ErrBackend = errors.New("generation backend failure")
)

// Wrap tags err with ErrQuotaExceeded or ErrBackend. isQuota lets a
// provider report its own typed rate-limit errors first.
func Wrap(err error, isQuota bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrBackend) {
		return err
	}
	if isQuota || LooksLikeQuota(err) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}

// LooksLikeQuota recognises rate limiting from gRPC status codes or from
// the error text when the transport gave nothing typed.
func LooksLikeQuota(err error) bool {
	if err == nil {
		return false
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit")
}

func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
