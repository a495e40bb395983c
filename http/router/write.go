package router

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/xy-planning-network/switchback/dispatch"
)

const (
	jsonMediaType = "application/json; charset=UTF-8"
	textMediaType = "text/plain; charset=UTF-8"
)

// write sends res to w.
// A nil res is written as 204 No Content.
func (r *Router) write(w http.ResponseWriter, res *dispatch.Result) error {
	if res == nil {
		res = dispatch.NoContent()
	}

	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}

	if res.Location != "" {
		w.Header().Set("Location", res.Location)
	}

	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body []byte
	switch v := res.Body.(type) {
	case nil:
		w.WriteHeader(status)
		return nil

	case []byte:
		setDefault(w, "application/octet-stream")
		body = v

	case string:
		setDefault(w, textMediaType)
		body = []byte(v)

	default:
		b := r.pool.Get().(*bytes.Buffer)
		b.Reset()
		defer r.pool.Put(b)

		if err := json.NewEncoder(b).Encode(v); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return err
		}

		setDefault(w, jsonMediaType)
		w.WriteHeader(status)
		_, err := b.WriteTo(w)
		return err
	}

	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

func setDefault(w http.ResponseWriter, contentType string) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
}
