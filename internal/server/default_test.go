package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgmatrix/modules"
	"github.com/iota-uz/orgmatrix/pkg/application"
	"github.com/iota-uz/orgmatrix/pkg/configuration"
	"github.com/iota-uz/orgmatrix/pkg/httpapi"
)

func TestDefault_ServesOrgChartAPI(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	conf := &configuration.Configuration{
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
		Cors:            configuration.CorsOptions{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit:       configuration.RateLimitOptions{Enabled: true, GlobalRPS: 100, Storage: "memory"},
		OrgChart:        configuration.OrgChartOptions{Store: configuration.StoreMemory},
	}
	app := application.New(&application.ApplicationOptions{Logger: logger})
	require.NoError(t, modules.Load(app, modules.BuiltInModules(conf)...))

	srv, err := Default(&DefaultOptions{Logger: logger, Configuration: conf, Application: app})
	require.NoError(t, err)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/orgchart/api/views/hierarchy", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orgchart/api/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Code)
	require.NotEmpty(t, body.Meta["request_id"])
}
