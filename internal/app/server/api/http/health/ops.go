package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "authority-probe",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Authority probe",
		Description: "Reports whether the canonical store is readable and how sync responses are shaped. " +
			"Clients treat any non-2xx answer as offline",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
		Errors:      []int{http.StatusServiceUnavailable},
	}
}
