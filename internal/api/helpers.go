package api

import (
	"encoding/json/v2"
	"net/http"

	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
)

// decodeAndValidate decodes a JSON request body into dst and runs struct
// validation on the result.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return apperrors.Validation("invalid request body").WithCause(err)
	}
	return s.validator.Validate(dst)
}
