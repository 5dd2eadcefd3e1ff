package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	domainsync "watchkeeper/internal/domain/sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockStatusReader struct {
	mock.Mock
}

func (m *MockStatusReader) Status(ctx context.Context) (*domainsync.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainsync.Status), args.Error(1)
}

func TestHandler_healthCheck(t *testing.T) {
	tests := []struct {
		name       string
		status     *domainsync.Status
		statusErr  error
		info       Info
		wantErr    bool
		wantItems  int
		wantMode   domainsync.ResponseMode
		wantAuthed bool
	}{
		{
			name:      "reports store summary",
			status:    &domainsync.Status{Items: 3},
			info:      Info{ResponseMode: domainsync.ResponseTouched},
			wantItems: 3,
			wantMode:  domainsync.ResponseTouched,
		},
		{
			name:       "full mode with token",
			status:     &domainsync.Status{},
			info:       Info{ResponseMode: domainsync.ResponseFull, AuthRequired: true},
			wantMode:   domainsync.ResponseFull,
			wantAuthed: true,
		},
		{
			name:      "store unavailable",
			statusErr: errors.New("connection refused"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockStatusReader)
			reader.On("Status", mock.Anything).Return(tt.status, tt.statusErr)
			handler := NewHandler(reader, tt.info, slog.Default(), huma.Middlewares{})

			output, err := handler.healthCheck(context.Background(), &Input{})

			if tt.wantErr {
				require.Error(t, err)
				var se huma.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusServiceUnavailable, se.GetStatus())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "OK", output.Body.Status)
			assert.Equal(t, tt.wantItems, output.Body.Items)
			assert.Equal(t, tt.wantMode, output.Body.ResponseMode)
			assert.Equal(t, tt.wantAuthed, output.Body.AuthRequired)
			assert.False(t, output.Body.ServerTime.IsZero())
			reader.AssertExpectations(t)
		})
	}
}

func TestHandler_Route(t *testing.T) {
	tests := []struct {
		name      string
		statusErr error
		want      int
	}{
		{name: "ok", want: http.StatusOK},
		{name: "store down", statusErr: errors.New("boom"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockStatusReader)
			if tt.statusErr != nil {
				reader.On("Status", mock.Anything).Return(nil, tt.statusErr)
			} else {
				reader.On("Status", mock.Anything).Return(&domainsync.Status{Items: 1}, nil)
			}

			_, api := humatest.New(t)
			NewHandler(reader, Info{ResponseMode: domainsync.ResponseTouched}, slog.Default(), huma.Middlewares{}).SetupRoutes(api)

			resp := api.Get("/api/v1/health")

			assert.Equal(t, tt.want, resp.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, resp.Body.String(), `"responseMode":"touched"`)
				assert.Contains(t, resp.Body.String(), `"items":1`)
			}
		})
	}
}
