package envelope

import (
	"encoding/json"
	"net/http"
)

// WriteJSON escreve o corpo como JSON com o status informado.
func WriteJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
