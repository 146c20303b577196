package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/repository"
)

func newTestSeedService(t *testing.T, enabled bool, token string) (SeedService, repository.StudentRepository) {
	t.Helper()
	repo := repository.NewStudentRepository()
	svc, err := NewSeedService(repo, testValidator(), enabled, token, testLogger())
	require.NoError(t, err)
	return svc, repo
}

func TestSeedDefaultsLoadsBuiltinRoster(t *testing.T) {
	svc, repo := newTestSeedService(t, true, "secret")

	count, err := svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	require.Equal(t, 18, count)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 18)
	require.Equal(t, "52f430c6-b6f9-4a08-ada7-7356f143f0d1", students[0].ID)
	require.Equal(t, "Habel Irenza Sitopu", students[0].Name)
	require.Equal(t, "Ayam", students[17].Name)

	count, err = svc.SeedDefaults(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSeedServiceTokenGuard(t *testing.T) {
	svc, _ := newTestSeedService(t, true, "secret")
	payload := []byte(`{"items":[{"name":"Yuki","age":18}]}`)

	_, err := svc.ReplaceStudents(context.Background(), "wrong", payload)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	open, _ := newTestSeedService(t, true, "")
	_, err = open.ReplaceStudents(context.Background(), "", payload)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	disabled, _ := newTestSeedService(t, false, "secret")
	_, err = disabled.ReplaceStudents(context.Background(), "secret", payload)
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceReplacesRoster(t *testing.T) {
	svc, repo := newTestSeedService(t, true, "secret")
	require.NoError(t, repo.Create(context.Background(), models.Student{ID: "old", Name: "Old"}))

	count, err := svc.ReplaceStudents(context.Background(), "secret", []byte(`{"items":[
		{"id":"x1","name":"Yuki","age":18,"class":"7B","gender":"P","vocations":"Peternakan","height":158,"weight":49},
		{"name":"Nori","age":17}
	]}`))
	require.NoError(t, err)
	require.Equal(t, 2, count)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "x1", students[0].ID)
	require.NotEmpty(t, students[1].ID)
	_, err = repo.GetByID(context.Background(), "old")
	require.ErrorIs(t, err, repository.ErrStudentNotFound)
}

func TestSeedServiceRejectsInvalidPayload(t *testing.T) {
	svc, repo := newTestSeedService(t, true, "secret")
	require.NoError(t, repo.Create(context.Background(), models.Student{ID: "keep", Name: "Keep"}))

	payloads := map[string]string{
		"not json":       `{"items":`,
		"missing items":  `{}`,
		"negative age":   `{"items":[{"name":"Yuki","age":-1}]}`,
		"fractional age": `{"items":[{"name":"Yuki","age":18.5}]}`,
		"unknown field":  `{"items":[{"name":"Yuki","shoe":42}]}`,
		"bad gender":     `{"items":[{"name":"Yuki","gender":"X"}]}`,
		"duplicate ids":  `{"items":[{"id":"d","name":"A"},{"id":"d","name":"B"}]}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ReplaceStudents(context.Background(), "secret", []byte(payload))
			require.ErrorIs(t, err, ErrSeedInvalidPayload)
		})
	}

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
}
