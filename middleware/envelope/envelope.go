package envelope

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout é ISO-8601 em UTC com milissegundos (ex: 2024-03-19T12:00:00.000Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Detail é um item de detalhe de erro (ex: um campo inválido).
type Detail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Success é o envelope de sucesso. Nunca carrega error nem requestId.
type Success struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Error é o envelope de erro. Status não vai para o JSON; é o status HTTP do
// descritor usado na construção.
type Error struct {
	Success   bool   `json:"success"`
	Error     Code   `json:"error"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`

	Status int `json:"-"`
}

// Builder constrói envelopes. O zero value usa time.Now e uuid.
type Builder struct {
	Now   func() time.Time
	NewID func() string
}

var defaultBuilder Builder

// BuildSuccess usa o Builder padrão.
func BuildSuccess(data any) Success { return defaultBuilder.BuildSuccess(data) }

// BuildError usa o Builder padrão.
func BuildError(code Code, message string, details any, requestID string) Error {
	return defaultBuilder.BuildError(code, message, details, requestID)
}

func (b Builder) BuildSuccess(data any) Success {
	return Success{
		Success:   true,
		Data:      data,
		Timestamp: b.timestamp(),
	}
}

// BuildError monta o envelope de erro. Código fora da taxonomia é resolvido
// por Resolve; mensagem vazia usa a mensagem padrão do descritor; requestID
// vazio recebe um id novo para manter o envelope válido.
func (b Builder) BuildError(code Code, message string, details any, requestID string) Error {
	d := Resolve(code)
	if message == "" || d.Code != code {
		message = d.DefaultMessage
	}
	if requestID == "" {
		requestID = b.newID()
	}
	return Error{
		Success:   false,
		Error:     d.Code,
		Message:   message,
		Details:   normalizeDetails(details),
		Timestamp: b.timestamp(),
		RequestID: requestID,
		Status:    d.HTTPStatus,
	}
}

func (b Builder) timestamp() string {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return now().UTC().Format(TimestampLayout)
}

func (b Builder) newID() string {
	if b.NewID != nil {
		if id := b.NewID(); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// normalizeDetails remove listas vazias (omitidas no JSON) e garante que
// todo Detail tenha mensagem.
func normalizeDetails(details any) any {
	switch v := details.(type) {
	case nil:
		return nil
	case []Detail:
		if len(v) == 0 {
			return nil
		}
		out := make([]Detail, len(v))
		for i, d := range v {
			if d.Message == "" {
				d.Message = "invalid value"
			}
			out[i] = d
		}
		return out
	}

	rv := reflect.ValueOf(details)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return nil
		}
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return details
}
