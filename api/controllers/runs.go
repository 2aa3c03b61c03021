package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/adsync/api/responses"
	"github.com/angelmondragon/adsync/api/validators"
	"github.com/angelmondragon/adsync/internal/etl"
	pkgerrors "github.com/angelmondragon/adsync/pkg/errors"
	"github.com/angelmondragon/adsync/pkg/logger"
)

// RunTrigger starts a pipeline pass on demand.
type RunTrigger interface {
	TriggerRun(ctx context.Context, params etl.RunParams) (*etl.Report, error)
}

type triggerRunRequest struct {
	Since string `json:"since" validate:"omitempty,datetime=2006-01-02"`
	Until string `json:"until" validate:"omitempty,datetime=2006-01-02"`
}

type stepResultResponse struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

type runReportResponse struct {
	RunID     string               `json:"run_id"`
	Summary   string               `json:"summary"`
	TotalRows int                  `json:"total_rows"`
	Steps     []stepResultResponse `json:"steps"`
}

// TriggerRun handles POST /api/v1/runs. The body is optional; since/until
// narrow the activity-history window. The pass runs synchronously and the
// full step report is returned, including any step failures. A pass already
// in flight yields 409.
func TriggerRun(runner RunTrigger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req triggerRunRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := runner.TriggerRun(r.Context(), etl.RunParams{Since: req.Since, Until: req.Until})
		if err != nil {
			if errors.Is(err, etl.ErrRunInProgress) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeConflict, "a pipeline run is already in progress"))
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := runReportResponse{
			RunID:     report.RunID,
			Summary:   report.Summary(),
			TotalRows: report.TotalRows(),
			Steps:     make([]stepResultResponse, 0, len(report.Steps)),
		}
		for _, step := range report.Steps {
			out := stepResultResponse{Name: step.Name, Rows: step.Rows}
			if step.Err != nil {
				out.Error = step.Err.Error()
			}
			payload.Steps = append(payload.Steps, out)
		}

		responses.WriteSuccess(w, payload)
	}
}
