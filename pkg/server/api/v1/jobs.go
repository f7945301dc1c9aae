// Package v1 contains the versioned job API handlers.
//
// Request/response payloads here are part of the public API contract and
// evolve additively only: new optional fields may be added, existing fields
// are never removed or renamed. Breaking changes require a new API version.
package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/shemshallah/quantum-foam-rng/pkg/server/api"
)

// maxCreateBody bounds the create-job request body; the payload is one
// optional number.
const maxCreateBody = 4 << 10

var validate = validator.New()

// CreateJobRequest is the (fully optional) create payload.
type CreateJobRequest struct {
	AngleDeg float64 `json:"angle" validate:"gte=0,lte=90"`
}

// CreateJobHandler handles POST /api/v1/jobs
//
// Accepts an optional JSON body {"angle": <degrees>}; the angle may be a
// number or a numeric string. Omitted, it defaults to the configured
// generation angle. Responds 202 with the new job id:
//
//	{"job_id": "3f2a...", "status": "pending"}
func CreateJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		err := json.NewDecoder(io.LimitReader(r.Body, maxCreateBody)).Decode(&raw)
		if err != nil && !errors.Is(err, io.EOF) {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_BODY", "request body must be a JSON object")
			return
		}

		req := CreateJobRequest{AngleDeg: deps.DefaultAngleDeg}
		if v, ok := raw["angle"]; ok {
			angle, cerr := cast.ToFloat64E(v)
			if cerr != nil {
				api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "INVALID_ANGLE", "angle must be a number")
				return
			}
			req.AngleDeg = angle
		}
		if verr := validate.Struct(req); verr != nil {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "VALIDATION_ERROR", "angle must lie in [0, 90] degrees")
			return
		}

		id, err := deps.Jobs.CreateJob(req.AngleDeg)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusAccepted, api.CreatedResponse{JobID: id, Status: "pending"})
	}
}

// GetJobHandler handles GET /api/v1/jobs/{id}
//
// Returns the job snapshot in its status-dependent shape: in-flight jobs
// carry status only, completed jobs carry the result payload, failed jobs
// carry the failure reason. Returns 404 for unknown or evicted ids.
func GetJobHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			api.WriteJSONError(w, http.StatusBadRequest, "Bad Request", "JOB_ID_REQUIRED", "job id is required")
			return
		}

		job, err := deps.Jobs.GetJob(id)
		if err != nil {
			api.WriteError(w, r, err)
			return
		}

		api.WriteJSON(w, http.StatusOK, api.NewJobResponse(job))
	}
}
