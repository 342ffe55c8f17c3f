//go:build integration

package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/testutil"
)

func TestPostgresDossierRoundtrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	in := &Dossier{
		Citizen: Citizen{
			ID:           "cit_pg_001",
			Name:         "Anya Morgenstern",
			Neighborhood: "Station Row",
		},
		Health: &HealthRecord{
			CitizenID:              "cit_pg_001",
			MentalHealthTreatments: 2,
			Conditions: []Condition{
				{Name: "hypertension", Severity: "moderate", Chronic: true},
			},
		},
		Judicial: &JudicialRecord{
			CitizenID:      "cit_pg_001",
			PendingCharges: 1,
		},
	}
	require.NoError(t, store.PutDossier(ctx, in))

	out, err := store.GetDossier(ctx, "cit_pg_001")
	require.NoError(t, err)
	assert.Equal(t, "Anya Morgenstern", out.Citizen.Name)
	require.NotNil(t, out.Health)
	assert.Equal(t, 2, out.Health.MentalHealthTreatments)
	require.Len(t, out.Health.Conditions, 1)
	assert.True(t, out.Health.Conditions[0].Chronic)
	require.NotNil(t, out.Judicial)
	assert.Equal(t, 1, out.Judicial.PendingCharges)
	// Domains with no record stay nil
	assert.Nil(t, out.Finance)
	assert.Nil(t, out.Location)
	assert.Nil(t, out.Social)
}

func TestPostgresCitizenFlags(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, store.PutDossier(ctx, &Dossier{
		Citizen: Citizen{ID: "cit_pg_002", Name: "Tomas Reyes"},
	}))

	require.NoError(t, store.SetDetained(ctx, "cit_pg_002", true))
	require.NoError(t, store.SetHospitalized(ctx, "cit_pg_002", true))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SetRiskScore(ctx, "cit_pg_002", 71, at))

	c, err := store.GetCitizen(ctx, "cit_pg_002")
	require.NoError(t, err)
	assert.True(t, c.Detained)
	assert.True(t, c.Hospitalized)
	assert.Equal(t, 71, c.RiskScore)
	require.NotNil(t, c.RiskScoredAt)
	assert.WithinDuration(t, at, *c.RiskScoredAt, time.Second)
}

func TestPostgresUnknownCitizen(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	_, err := store.GetCitizen(ctx, "cit_nope")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.SetDetained(ctx, "cit_nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
