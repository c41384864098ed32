package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/asteroidworker/internal/core/models"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	t.Run("GenerateResource", func(t *testing.T) {
		require.NoError(t, r.Validate(models.CommandGenerateResource,
			[]byte(`{"user_database_id":"u1","scanner":{"speciality":"random","sensitivity":1.5,"max_yield":40}}`)))

		require.Error(t, r.Validate(models.CommandGenerateResource,
			[]byte(`{"user_database_id":"","scanner":{"speciality":"random"}}`)))
		require.Error(t, r.Validate(models.CommandGenerateResource,
			[]byte(`{"user_database_id":"u1","scanner":{"speciality":"gold"}}`)))
		require.Error(t, r.Validate(models.CommandGenerateResource,
			[]byte(`{"user_database_id":"u1"}`)))
	})

	t.Run("ExtractResource", func(t *testing.T) {
		require.NoError(t, r.Validate(models.CommandExtractResource, []byte(`{"extract_rate":-2}`)))
		require.NoError(t, r.Validate(models.CommandExtractResource, []byte(`{"extract_rate":0}`)))

		require.Error(t, r.Validate(models.CommandExtractResource, []byte(`{"extract_rate":1.5}`)))
		require.Error(t, r.Validate(models.CommandExtractResource, []byte(`{}`)))
		require.Error(t, r.Validate(models.CommandExtractResource, nil))
	})

	t.Run("Unknown command passes", func(t *testing.T) {
		require.NoError(t, r.Validate("unknown.command", []byte(`{"anything":true}`)))
	})
}

func TestRegister_RejectsBrokenSchema(t *testing.T) {
	r := New()
	require.Error(t, r.Register(models.CommandExtractResource, []byte(`{"type": 12}`)))
}
