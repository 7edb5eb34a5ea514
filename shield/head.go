package shield

import "net/http"

// HeadToGet lets load balancers probe GET routes such as /healthz with
// HEAD. net/http drops the body of HEAD responses.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
