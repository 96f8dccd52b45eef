package web

import (
	"context"
	"net/http"
)

type ctxKey string

func AddValueToContext(r *http.Request, key string, value any) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKey(key), value)
	return r.WithContext(ctx)
}

func GetValueFromContext[T any](r *http.Request, key string) (T, bool) {
	val := r.Context().Value(ctxKey(key))
	if val == nil {
		var zero T
		return zero, false
	}

	tVal, ok := val.(T)
	if !ok {
		var zero T
		return zero, false
	}

	return tVal, true
}
