package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Handler serves the resolver over HTTP. POST takes a JSON body; GET reads
// the query and operationName parameters.
func (r *Resolver) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body Request
		switch req.Method {
		case http.MethodPost:
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeResponse(w, http.StatusBadRequest, &Response{
					Errors: gqlerror.List{gqlerror.Errorf("Invalid JSON: %v", err)},
				})
				return
			}
		case http.MethodGet:
			body.Query = req.URL.Query().Get("query")
			body.OperationName = req.URL.Query().Get("operationName")
		default:
			w.Header().Set("Allow", "GET, POST")
			writeResponse(w, http.StatusMethodNotAllowed, &Response{
				Errors: gqlerror.List{gqlerror.Errorf("Method not allowed, use POST")},
			})
			return
		}

		resp := r.Execute(req.Context(), body)
		status := http.StatusOK
		if resp.Data == nil {
			status = http.StatusBadRequest
		}
		writeResponse(w, status, resp)
	})
}

func writeResponse(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
