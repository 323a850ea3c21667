package rest

import (
	"net/http"
	"strconv"

	"github.com/evergreen-ci/gimlet"
)

// parseID reads a positive integer route variable. Anything else is a 404,
// the same as an unknown id.
func parseID(r *http.Request, name string) (int, error) {
	raw := gimlet.GetVars(r)[name]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, gimlet.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    "no resource '" + raw + "'",
		}
	}
	return id, nil
}
