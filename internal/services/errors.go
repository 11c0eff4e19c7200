// internal/services/errors.go
package services

import "errors"

var (
	ErrNotFound      = errors.New("recurso não encontrado")
	ErrForbidden     = errors.New("acesso negado")
	ErrConflict      = errors.New("operação já em andamento")
	ErrQuotaExceeded = errors.New("limite de uso atingido")
)
