package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/adapters/rest"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

func TestDeploymentsClientListDeployments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/dashboard/deployments", r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(ports.DeploymentPage{
			Deployments: []domain.Deployment{
				{
					ID:             "deploy-1",
					ServiceName:    "checkout",
					ServiceVersion: "2.4.1",
					Status:         domain.DeploymentStatusLive,
				},
			},
			Total: 1,
			Limit: 10,
		})
	}))
	defer srv.Close()

	c, err := rest.NewDeploymentsClient(rest.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	page, err := c.ListDeployments(context.Background(), ports.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Deployments, 1)
	require.Equal(t, "checkout", page.Deployments[0].ServiceName)
	require.Equal(t, domain.DeploymentStatusLive, page.Deployments[0].Status)
}
