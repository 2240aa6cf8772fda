package governance

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"governance-gateway/middleware/envelope"
	"governance-gateway/middleware/failure"
)

// maxUpstreamErrorBody limita quanto do corpo de erro do upstream é lido para
// decidir se ele já veio no envelope.
const maxUpstreamErrorBody = 64 << 10

// Proxy é o reverse proxy do gateway. Falha de transporte vira
// SERVICE_UNAVAILABLE; resposta 4xx/5xx do upstream é reescrita no envelope de
// erro, a menos que o upstream já responda com um envelope válido.
func (s *Stack) Proxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ModifyResponse = envelopeUpstreamErrors
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		var up *failure.Upstream
		if errors.As(err, &up) {
			s.Normalizer.Fail(w, r, up)
			return
		}
		s.Normalizer.Fail(w, r, &failure.Unavailable{Reason: "upstream", Err: err})
	}
	return proxy
}

func envelopeUpstreamErrors(res *http.Response) error {
	if res.StatusCode < http.StatusBadRequest {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxUpstreamErrorBody+1))
	_ = res.Body.Close()
	if err != nil {
		return &failure.Upstream{Status: res.StatusCode}
	}
	if len(body) <= maxUpstreamErrorBody && isErrorEnvelope(body) {
		res.Body = io.NopCloser(bytes.NewReader(body))
		return nil
	}
	return &failure.Upstream{Status: res.StatusCode}
}

// isErrorEnvelope reconhece {"success": false, "error": <código da taxonomia>}.
func isErrorEnvelope(body []byte) bool {
	var head struct {
		Success *bool         `json:"success"`
		Error   envelope.Code `json:"error"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return false
	}
	if head.Success == nil || *head.Success {
		return false
	}
	_, known := envelope.Lookup(head.Error)
	return known
}
