package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"governance-gateway/middleware/envelope"
	"governance-gateway/middleware/failure"
	"governance-gateway/middleware/ratelimit/domain"
)

// Classification é o resultado de mapear uma falha para a taxonomia.
type Classification struct {
	Code    envelope.Code
	Message string
	Details any
	// RetryAfter em segundos; só é preenchido para RATE_LIMITED.
	RetryAfter int
}

// Rule reconhece um formato de falha. Regras são avaliadas em ordem e a
// primeira que reconhecer vence.
type Rule func(err error) (Classification, bool)

// QuotaDetails é o detalhe de RATE_LIMITED.
type QuotaDetails struct {
	Limit                int    `json:"limit"`
	TimeWindowSeconds    int    `json:"timeWindowSeconds"`
	RemainingAttempts    int    `json:"remainingAttempts"`
	NextValidRequestTime string `json:"nextValidRequestTime"`
	WaitTimeSeconds      int    `json:"waitTimeSeconds"`
}

// Classifier é a cadeia predicado→código. Não guarda estado mutável: o mesmo
// error classificado duas vezes produz o mesmo código.
type Classifier struct {
	rules []Rule
}

// DefaultRules é a cadeia padrão, da mais específica para a mais genérica.
func DefaultRules() []Rule {
	return []Rule{
		classifyRejection,
		classifyNotFound,
		classifyBusinessRule,
		classifyInvalidOperation,
		classifyValidation,
		classifyInvalidInput,
		classifyAlreadyExists,
		classifyStorageFault,
		classifyDriverError,
		classifyUpstream,
		classifyUnavailable,
	}
}

// NewClassifier monta a cadeia com as regras extras antes das padrão.
func NewClassifier(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(extra)+11)
	rules = append(rules, extra...)
	rules = append(rules, DefaultRules()...)
	return &Classifier{rules: rules}
}

// Classify nunca falha: panic dentro de uma regra, código fora da taxonomia
// ou error desconhecido viram INTERNAL_SERVER_ERROR.
func (c *Classifier) Classify(err error) (cl Classification) {
	defer func() {
		if recover() != nil {
			cl = internal()
		}
	}()

	if err == nil {
		return internal()
	}
	for _, rule := range c.rules {
		got, ok := rule(err)
		if !ok {
			continue
		}
		if _, known := envelope.Lookup(got.Code); !known {
			return internal()
		}
		return got
	}
	return internal()
}

func internal() Classification {
	return Classification{Code: envelope.CodeInternal}
}

func classifyRejection(err error) (Classification, bool) {
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		return Classification{}, false
	}
	wait := rej.WaitSeconds()
	return Classification{
		Code:    envelope.CodeRateLimited,
		Message: fmt.Sprintf("Too many requests, please wait %d seconds and try again", wait),
		Details: QuotaDetails{
			Limit:                rej.Limit,
			TimeWindowSeconds:    rej.WindowSeconds(),
			RemainingAttempts:    rej.RemainingAttempts(),
			NextValidRequestTime: rej.NextValidRequestTime.UTC().Format(envelope.TimestampLayout),
			WaitTimeSeconds:      wait,
		},
		RetryAfter: wait,
	}, true
}

func classifyNotFound(err error) (Classification, bool) {
	var nf *failure.NotFound
	if !errors.As(err, &nf) {
		return Classification{}, false
	}
	return Classification{Code: envelope.CodeNotFound, Message: nf.Error()}, true
}

func classifyBusinessRule(err error) (Classification, bool) {
	var br *failure.BusinessRule
	if !errors.As(err, &br) {
		return Classification{}, false
	}
	var details any
	if br.Rule != "" {
		details = []envelope.Detail{{Message: br.Message, Code: br.Rule}}
	}
	return Classification{Code: envelope.CodeBusiness, Message: br.Message, Details: details}, true
}

func classifyInvalidOperation(err error) (Classification, bool) {
	var op *failure.InvalidOperation
	if !errors.As(err, &op) {
		return Classification{}, false
	}
	return Classification{Code: envelope.CodeInvalidOperation, Message: op.Message}, true
}

func classifyValidation(err error) (Classification, bool) {
	var v *failure.Validation
	if !errors.As(err, &v) {
		return Classification{}, false
	}
	details := make([]envelope.Detail, 0, len(v.Violations))
	for _, viol := range v.Violations {
		details = append(details, envelope.Detail{Field: viol.Field, Message: viol.Message, Code: viol.Code})
	}
	return Classification{Code: envelope.CodeValidation, Details: details}, true
}

func classifyInvalidInput(err error) (Classification, bool) {
	var in *failure.InvalidInput
	if !errors.As(err, &in) {
		return Classification{}, false
	}
	return Classification{Code: envelope.CodeInvalidInput, Message: in.Message}, true
}

func classifyAlreadyExists(err error) (Classification, bool) {
	var ae *failure.AlreadyExists
	if !errors.As(err, &ae) {
		return Classification{}, false
	}
	return Classification{Code: envelope.CodeAlreadyExists, Message: ae.Error()}, true
}

// classifyStorageFault decide pela tag; o texto do driver fica só no log.
func classifyStorageFault(err error) (Classification, bool) {
	var sf *failure.StorageFault
	if !errors.As(err, &sf) {
		return Classification{}, false
	}
	switch sf.Tag {
	case failure.TagUniqueConflict:
		return Classification{Code: envelope.CodeUniqueViolation}, true
	case failure.TagRecordMissing:
		msg := ""
		if sf.Resource != "" {
			msg = failure.NewNotFound(sf.Resource, sf.ID).Error()
		}
		return Classification{Code: envelope.CodeNotFound, Message: msg}, true
	default:
		return Classification{Code: envelope.CodeDatabase}, true
	}
}

// classifyUpstream traduz o status do upstream para o código mais próximo.
// 4xx sem equivalente vira INVALID_OPERATION e 5xx sem equivalente vira
// INTERNAL_SERVER_ERROR.
func classifyUpstream(err error) (Classification, bool) {
	var up *failure.Upstream
	if !errors.As(err, &up) {
		return Classification{}, false
	}
	switch {
	case up.Status == http.StatusBadRequest:
		return Classification{Code: envelope.CodeInvalidInput}, true
	case up.Status == http.StatusNotFound:
		return Classification{Code: envelope.CodeNotFound}, true
	case up.Status == http.StatusConflict:
		return Classification{Code: envelope.CodeAlreadyExists}, true
	case up.Status == http.StatusUnprocessableEntity:
		return Classification{Code: envelope.CodeBusiness}, true
	case up.Status == http.StatusTooManyRequests,
		up.Status == http.StatusBadGateway,
		up.Status == http.StatusServiceUnavailable,
		up.Status == http.StatusGatewayTimeout:
		return Classification{Code: envelope.CodeServiceUnavailable}, true
	case up.Status >= 400 && up.Status < 500:
		return Classification{Code: envelope.CodeInvalidOperation}, true
	default:
		return Classification{Code: envelope.CodeInternal}, true
	}
}

func classifyUnavailable(err error) (Classification, bool) {
	var un *failure.Unavailable
	if errors.As(err, &un) || errors.Is(err, context.DeadlineExceeded) {
		return Classification{Code: envelope.CodeServiceUnavailable}, true
	}
	return Classification{}, false
}
