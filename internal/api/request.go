package api

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validater is implemented by request bodies.
type Validater interface {
	Validate() map[string]string
}

// AskRequest is the body of POST /ask. A missing top_k falls back to the
// configured default; an explicit non-positive value is rejected by the
// engine.
type AskRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     *int   `json:"top_k"`
}

func (r *AskRequest) Validate() map[string]string {
	return validateStruct(r)
}

// RetrieveRequest is the body of POST /retrieve. An empty question is a
// valid query.
type RetrieveRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

func (r *RetrieveRequest) Validate() map[string]string {
	return validateStruct(r)
}

func topKOrDefault(topK *int, def int) int {
	if topK == nil {
		return def
	}
	return *topK
}

func validateStruct(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	errs := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errs[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return errs
}
