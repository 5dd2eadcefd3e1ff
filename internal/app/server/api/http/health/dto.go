package health

import (
	"time"

	domainsync "watchkeeper/internal/domain/sync"
)

// Input represents the input for the authority probe
type Input struct{}

// Output represents the output for the authority probe
type Output struct {
	Body Response
}

// Response describes whether the authority can serve sync batches
type Response struct {
	Status       string                  `json:"status" example:"OK" doc:"OK when the canonical store is readable"`
	ServerTime   time.Time               `json:"serverTime" format:"date-time" doc:"Authority clock, informational only"`
	ResponseMode domainsync.ResponseMode `json:"responseMode" enum:"touched,full" doc:"Which items a sync response carries"`
	AuthRequired bool                    `json:"authRequired" doc:"Whether sync endpoints expect a bearer token"`
	Items        int                     `json:"items" doc:"Number of canonical items"`
}
