package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ce1ectric/groundmeas/internal/analytics"
	"github.com/Ce1ectric/groundmeas/internal/repository"
)

// mapComputeError translates the analytics error taxonomy and repository
// sentinels into HTTP errors: malformed input is the client's fault (400),
// data that is well-formed but unusable for the requested computation is 422,
// a missing measurement is 404, everything else is a 500.
func mapComputeError(err error) error {
	var validation *analytics.ValidationError
	var insufficient *analytics.InsufficientDataError
	var numerical *analytics.NumericalError

	switch {
	case errors.As(err, &validation):
		return huma.Error400BadRequest(validation.Reason, err)
	case errors.As(err, &insufficient):
		return huma.Error422UnprocessableEntity(err.Error(), err)
	case errors.As(err, &numerical):
		return huma.Error422UnprocessableEntity(err.Error(), err)
	case errors.Is(err, repository.ErrNotFound):
		return huma.Error404NotFound("Measurement not found", err)
	default:
		return huma.Error500InternalServerError("Internal error", err)
	}
}
