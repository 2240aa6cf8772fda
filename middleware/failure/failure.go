package failure

import (
	"fmt"
	"net/http"
	"strings"
)

// NotFound sinaliza que o recurso pedido não existe (regra de domínio).
type NotFound struct {
	Resource string
	ID       any
	Message  string
}

func NewNotFound(resource string, id any) *NotFound {
	return &NotFound{Resource: resource, ID: id}
}

func (e *NotFound) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return describe(e.Resource, e.ID) + " not found"
}

// BusinessRule sinaliza uma regra de negócio violada.
type BusinessRule struct {
	Rule    string
	Message string
}

func NewBusinessRule(rule, format string, args ...any) *BusinessRule {
	return &BusinessRule{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func (e *BusinessRule) Error() string { return e.Message }

// InvalidOperation sinaliza uma operação que não faz sentido no estado atual.
type InvalidOperation struct{ Message string }

func (e *InvalidOperation) Error() string { return e.Message }

// InvalidInput sinaliza entrada malformada fora do esquema de validação
// (ex: id não numérico, JSON quebrado).
type InvalidInput struct {
	Message string
	Err     error
}

func (e *InvalidInput) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InvalidInput) Unwrap() error { return e.Err }

// AlreadyExists sinaliza conflito detectado pela regra de domínio (não pelo
// índice do banco; esse caso é StorageFault com TagUniqueConflict).
type AlreadyExists struct {
	Resource string
	ID       any
}

func (e *AlreadyExists) Error() string { return describe(e.Resource, e.ID) + " already exists" }

// Violation é um campo rejeitado pelo validador de entrada.
type Violation struct {
	Field   string
	Message string
	Code    string
}

// Validation agrupa as violações devolvidas pelo validador de entrada.
type Validation struct {
	Violations []Violation
}

func (e *Validation) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add acumula uma violação e retorna o próprio valor para encadear.
func (e *Validation) Add(field, code, message string) *Validation {
	e.Violations = append(e.Violations, Violation{Field: field, Code: code, Message: message})
	return e
}

// Err retorna nil quando não há violações.
func (e *Validation) Err() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

// Unavailable sinaliza que o serviço não pode atender agora (sobrecarga,
// upstream fora, dependência indisponível).
type Unavailable struct {
	Reason string
	Err    error
}

func (e *Unavailable) Error() string {
	if e.Err != nil {
		return "unavailable: " + e.Reason + ": " + e.Err.Error()
	}
	return "unavailable: " + e.Reason
}

func (e *Unavailable) Unwrap() error { return e.Err }

func describe(resource string, id any) string {
	if resource == "" {
		resource = "resource"
	}
	if id == nil {
		return resource
	}
	return fmt.Sprintf("%s %v", resource, id)
}

// Upstream é uma resposta de erro (4xx/5xx) vinda do serviço atrás do proxy.
// Só o status atravessa; o corpo do upstream não chega ao cliente.
type Upstream struct {
	Status int
}

func (e *Upstream) Error() string {
	return fmt.Sprintf("upstream replied %d %s", e.Status, http.StatusText(e.Status))
}
