package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// ParsePathIntGt reads the chi URL parameter key as an int and requires it to be greater than value.
// On failure it writes a 400 response and returns false.
func ParsePathIntGt(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string, value int64) (int, bool) {
	return parsePathValidate(w, r, logger, key, gt(value))
}

func parsePathValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string, pValidator ParamValidator) (int, bool) {
	value := chi.URLParam(r, key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s path parameter is required", key))
		return 0, false
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
