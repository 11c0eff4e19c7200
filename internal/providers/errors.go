// internal/providers/errors.go
package providers

import (
	"errors"
	"fmt"
)

// ErrExternal marks any adapter-level failure: auth, rate limit, connection
// error or a malformed provider response. Callers can distinguish it from
// "provider answered but found nothing" and decide retry-vs-abandon policy
// (current policy: never auto-retry).
var ErrExternal = errors.New("falha na API externa")

// ErrNotConfigured marks a missing API key or endpoint for a provider that
// requires one.
var ErrNotConfigured = errors.New("provedor externo não configurado")

var errEmptyChoices = errors.New("resposta sem conteúdo")

// ProviderError carries the provider name and operation alongside the
// normalized error kind.
type ProviderError struct {
	Provider string
	Op       string
	Cause    error
	kind     error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.kind)
}

func (e *ProviderError) Is(target error) bool {
	return target == e.kind
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func External(provider, op string, cause error) error {
	return &ProviderError{Provider: provider, Op: op, Cause: cause, kind: ErrExternal}
}

func NotConfigured(provider string) error {
	return &ProviderError{Provider: provider, Op: "configuração", kind: ErrNotConfigured}
}
