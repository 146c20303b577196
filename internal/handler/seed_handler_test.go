package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siswa-api/internal/handler"
	"github.com/noah-isme/siswa-api/internal/service"
)

type mockSeedService struct {
	err         error
	lastToken   string
	lastPayload []byte
	affected    int
}

func (m *mockSeedService) SeedDefaults(context.Context) (int, error) {
	return 0, nil
}

func (m *mockSeedService) ReplaceStudents(_ context.Context, token string, payload []byte) (int, error) {
	m.lastToken = token
	m.lastPayload = payload
	if m.err != nil {
		return 0, m.err
	}
	return m.affected, nil
}

func TestSeedHandler_StudentsSuccess(t *testing.T) {
	svc := &mockSeedService{affected: 2}
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/seed"))

	body := `{"items":[{"name":"Yuki"},{"name":"Nori"}]}`
	resp := doRequest(t, app, http.MethodPost, "/api/v1/seed/students", body, map[string]string{"X-Seed-Token": "secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Affected int `json:"affected"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, 2, response.Data.Affected)
	require.Equal(t, "secret", svc.lastToken)
	require.JSONEq(t, body, string(svc.lastPayload))
}

func TestSeedHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: service.ErrSeedDisabled, status: fiber.StatusForbidden},
		{err: service.ErrSeedUnauthorized, status: fiber.StatusForbidden},
		{err: fmt.Errorf("%w: missing items", service.ErrSeedInvalidPayload), status: fiber.StatusBadRequest},
		{err: errors.New("boom"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := fiber.New()
			handler.NewSeedHandler(&mockSeedService{err: tc.err}, zerolog.Nop()).Register(app.Group("/api/v1/seed"))

			resp := doRequest(t, app, http.MethodPost, "/api/v1/seed/students", `{}`, nil)
			require.Equal(t, tc.status, resp.StatusCode)

			var response struct {
				Success bool `json:"success"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
		})
	}
}
