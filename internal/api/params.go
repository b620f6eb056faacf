package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"norelock.dev/mediagate/backend/internal/utils"
)

// HandlerFunc1 is a handler that receives decoded request parameters.
type HandlerFunc1[T any] func(w http.ResponseWriter, r *http.Request, data T)

// Defaulter is implemented by parameter structs with non-zero defaults.
type Defaulter interface {
	SetDefaults()
}

// WithParams decodes path and query parameters into a T, by their `query` tag, and
// validates it before calling handler. Path parameters win over query parameters of
// the same name. Invalid input answers 400 with the validation envelope.
func WithParams[T any](handler HandlerFunc1[*T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := new(T)
		if d, ok := any(params).(Defaulter); ok {
			d.SetDefaults()
		}

		if err := decodeParams(r, params); err != nil {
			utils.RespondWithValidationError(w, err)
			return
		}

		if err := utils.Validate(params); err != nil {
			utils.RespondWithValidationError(w, err)
			return
		}

		handler(w, r, params)
	}
}

func decodeParams(r *http.Request, target any) error {
	values := make(map[string]any)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			values[key] = rctx.URLParams.Values[i]
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "query",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}
