package middleware

import "net/http"

const (
	defaultAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	defaultAllowHeaders = "Content-Type, Authorization"

	// FunctionAllowHeaders are the headers browser clients send to privileged
	// routines.
	FunctionAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

type CORSMiddleware struct {
	allowMethods string
	allowHeaders string
}

func NewCORSMiddleware() *CORSMiddleware {
	return &CORSMiddleware{
		allowMethods: defaultAllowMethods,
		allowHeaders: defaultAllowHeaders,
	}
}

// NewFunctionCORSMiddleware is the permissive policy of privileged routines:
// any origin, no method list.
func NewFunctionCORSMiddleware() *CORSMiddleware {
	return &CORSMiddleware{allowHeaders: FunctionAllowHeaders}
}

func (r *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.allowMethods != "" {
			w.Header().Set("Access-Control-Allow-Methods", r.allowMethods)
		}
		w.Header().Set("Access-Control-Allow-Headers", r.allowHeaders)

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}
