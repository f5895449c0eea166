package pprof

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
)

type Options struct {
	Vars map[string]expvar.Var
}

type OptionFunc func(opts *Options)

// WithVars adds variables to the ones of the "vars" endpoint. They are served
// by this handler only and not published globally.
func WithVars(vars map[string]expvar.Var) OptionFunc {
	return func(opts *Options) {
		for name, v := range vars {
			opts.Vars[name] = v
		}
	}
}

type Handler struct {
	mux *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func NewHandler(prefix string, funcs ...OptionFunc) *Handler {
	opts := &Options{
		Vars: map[string]expvar.Var{},
	}

	for _, fn := range funcs {
		fn(opts)
	}

	mux := &http.ServeMux{}

	mux.HandleFunc(fmt.Sprintf("%s/", prefix), pprof.Index)
	mux.HandleFunc(fmt.Sprintf("%s/cmdline", prefix), pprof.Cmdline)
	mux.HandleFunc(fmt.Sprintf("%s/profile", prefix), pprof.Profile)
	mux.HandleFunc(fmt.Sprintf("%s/symbol", prefix), pprof.Symbol)
	mux.HandleFunc(fmt.Sprintf("%s/trace", prefix), pprof.Trace)
	mux.HandleFunc(fmt.Sprintf("%s/vars", prefix), serveVars(opts.Vars))

	mux.HandleFunc(fmt.Sprintf("%s/{name}", prefix), func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		pprof.Handler(name).ServeHTTP(w, r)
	})

	return &Handler{mux}
}

func serveVars(extra map[string]expvar.Var) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := map[string]json.RawMessage{}

		expvar.Do(func(kv expvar.KeyValue) {
			vars[kv.Key] = json.RawMessage(kv.Value.String())
		})

		for name, v := range extra {
			vars[name] = json.RawMessage(v.String())
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if err := json.NewEncoder(w).Encode(vars); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

var _ http.Handler = &Handler{}
