package envelope

import (
	"fmt"
	"net/http"
)

// Code é o identificador estável de um tipo de erro exposto ao cliente.
type Code string

const (
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeBusiness           Code = "BUSINESS_ERROR"
	CodeInvalidOperation   Code = "INVALID_OPERATION"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeUniqueViolation    Code = "UNIQUE_VIOLATION"
	CodeRateLimited        Code = "RATE_LIMITED"
)

// Descriptor é uma entrada imutável da taxonomia.
type Descriptor struct {
	Code           Code
	HTTPStatus     int
	DefaultMessage string
}

var taxonomy = []Descriptor{
	{CodeInternal, http.StatusInternalServerError, "An internal server error occurred"},
	{CodeServiceUnavailable, http.StatusServiceUnavailable, "The service is temporarily unavailable"},
	{CodeValidation, http.StatusBadRequest, "The submitted data is invalid"},
	{CodeInvalidInput, http.StatusBadRequest, "The supplied input is invalid"},
	{CodeNotFound, http.StatusNotFound, "The requested resource was not found"},
	{CodeAlreadyExists, http.StatusConflict, "The resource already exists"},
	{CodeBusiness, http.StatusUnprocessableEntity, "A business rule was violated"},
	{CodeInvalidOperation, http.StatusUnprocessableEntity, "The operation is not allowed"},
	{CodeDatabase, http.StatusInternalServerError, "A database error occurred"},
	{CodeUniqueViolation, http.StatusConflict, "The data conflicts with an existing record"},
	{CodeRateLimited, http.StatusTooManyRequests, "Too many requests, please try again later"},
}

// byCode é montado uma vez na inicialização e só é lido depois disso.
var byCode = func() map[Code]Descriptor {
	m := make(map[Code]Descriptor, len(taxonomy))
	for _, d := range taxonomy {
		if _, dup := m[d.Code]; dup {
			panic(fmt.Sprintf("envelope: duplicated code %s", d.Code))
		}
		if d.DefaultMessage == "" {
			panic(fmt.Sprintf("envelope: code %s has no default message", d.Code))
		}
		m[d.Code] = d
	}
	return m
}()

// Lookup retorna o descritor do código, se ele fizer parte da taxonomia.
func Lookup(code Code) (Descriptor, bool) {
	d, ok := byCode[code]
	return d, ok
}

// Resolve retorna o descritor do código. Código desconhecido é erro de
// programação: em builds com a tag "debug" gera panic, caso contrário cai em
// INTERNAL_SERVER_ERROR.
func Resolve(code Code) Descriptor {
	if d, ok := byCode[code]; ok {
		return d
	}
	if strictLookup {
		panic(fmt.Sprintf("envelope: unknown error code %q", code))
	}
	return byCode[CodeInternal]
}

// Codes lista os códigos na ordem de declaração.
func Codes() []Code {
	out := make([]Code, 0, len(taxonomy))
	for _, d := range taxonomy {
		out = append(out, d.Code)
	}
	return out
}

func (c Code) String() string { return string(c) }
