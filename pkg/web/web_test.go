package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

var discard = slog.New(slog.NewJSONHandler(io.Discard, nil))

func Test_RequestIDInjector(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
	}{
		{name: "generated when absent"},
		{name: "propagated when present", incoming: "req-42"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var seen string
			h := RequestIDInjector(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = middleware.GetReqID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rr := httptest.NewRecorder()

			// when
			h.ServeHTTP(rr, req)

			// then
			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
			if tc.incoming != "" {
				assert.Equal(t, tc.incoming, seen)
			}
		})
	}
}

func Test_Recoverer(t *testing.T) {
	// given
	h := Recoverer(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	// when
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func Test_ParsePathIntGt(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		expectedOK   bool
		expectedID   int
		expectedCode int
		expectedBody string
	}{
		{name: "valid", path: "/items/42", expectedOK: true, expectedID: 42, expectedCode: http.StatusOK},
		{name: "zero", path: "/items/0", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"Invalid id: 0"}`},
		{name: "not a number", path: "/items/abc", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"Invalid id: abc"}`},
		{name: "overflow", path: "/items/99999999999", expectedCode: http.StatusBadRequest, expectedBody: `{"error":"Invalid id: 99999999999"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var (
				id int
				ok bool
			)
			r := chi.NewRouter()
			r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok = ParsePathIntGt(w, r, discard, "id", 0)
			})
			rr := httptest.NewRecorder()

			// when
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))

			// then
			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedID, id)
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func Test_DecodeAndValidate(t *testing.T) {
	type request struct {
		ProductID int `json:"product_id" validate:"required,gt=0"`
	}
	testCases := []struct {
		name         string
		body         string
		expectedOK   bool
		expectedBody string
	}{
		{name: "valid", body: `{"product_id": 3}`, expectedOK: true},
		{name: "malformed", body: `{"product_id":`, expectedBody: `{"error":"Invalid request body"}`},
		{name: "rule violation", body: `{"product_id": -1}`, expectedBody: `{"validation_errors":{"ProductID":"failed on rule: gt"}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var dst request
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()

			// when
			ok := DecodeAndValidate(rr, req, discard, validator.New(), &dst)

			// then
			assert.Equal(t, tc.expectedOK, ok)
			if !tc.expectedOK {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}
