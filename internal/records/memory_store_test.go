package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testDossier(id string) *Dossier {
	return &Dossier{
		Citizen: Citizen{ID: id, Name: "Mara Voss", Neighborhood: "riverside"},
		Finance: &FinanceRecord{
			CitizenID:    id,
			AnnualIncome: 20000,
			Debts:        []Debt{{Kind: "credit_card", Amount: 18000, Delinquent: true}},
		},
		Judicial: &JudicialRecord{
			CitizenID:   id,
			Convictions: []Conviction{{Offense: "assault", Violent: true}},
		},
	}
}

func TestMemoryStore_GetDossier(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetDossier(ctx, "c1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutDossier(ctx, testDossier("c1")))

	d, err := s.GetDossier(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "Mara Voss", d.Citizen.Name)
	require.NotNil(t, d.Finance)
	require.NotNil(t, d.Judicial)
	require.Nil(t, d.Health)
	require.Nil(t, d.Location)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.PutDossier(ctx, testDossier("c1")))

	d1, err := s.GetDossier(ctx, "c1")
	require.NoError(t, err)
	d1.Finance.Debts[0].Amount = 0
	d1.Citizen.Name = "tampered"

	d2, err := s.GetDossier(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 18000.0, d2.Finance.Debts[0].Amount)
	require.Equal(t, "Mara Voss", d2.Citizen.Name)
}

func TestMemoryStore_SetRiskScore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.PutDossier(ctx, testDossier("c1")))

	now := time.Now()
	require.NoError(t, s.SetRiskScore(ctx, "c1", 42, now))

	c, err := s.GetCitizen(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 42, c.RiskScore)
	require.NotNil(t, c.RiskScoredAt)
	require.WithinDuration(t, now, *c.RiskScoredAt, time.Second)

	require.ErrorIs(t, s.SetRiskScore(ctx, "missing", 10, now), ErrNotFound)
}

func TestMemoryStore_Flags(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.PutDossier(ctx, testDossier("c1")))

	require.NoError(t, s.SetDetained(ctx, "c1", true))
	require.NoError(t, s.SetHospitalized(ctx, "c1", true))

	c, err := s.GetCitizen(ctx, "c1")
	require.NoError(t, err)
	require.True(t, c.Detained)
	require.True(t, c.Hospitalized)
}
