package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorder(t *testing.T) {
	tests := []struct {
		name  string
		serve func(w http.ResponseWriter)
		want  int
	}{
		{
			name:  "Explicit Status",
			serve: func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) },
			want:  http.StatusNotFound,
		},
		{
			name: "First WriteHeader Wins",
			serve: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusConflict)
				w.WriteHeader(http.StatusOK)
			},
			want: http.StatusConflict,
		},
		{
			name:  "Implicit 200 On Write",
			serve: func(w http.ResponseWriter) { w.Write([]byte("ok")) },
			want:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := wrapResponseWriter(httptest.NewRecorder())
			tt.serve(rec)
			if rec.Status() != tt.want {
				t.Errorf("Status() = %d, want %d", rec.Status(), tt.want)
			}
		})
	}
}

func TestLogging_PassesThrough(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/items", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "created" {
		t.Errorf("body = %q, want %q", w.Body.String(), "created")
	}
}
