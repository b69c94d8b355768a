package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

func hitNames(hits []m.ScanHit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Unit)
	}

	return out
}

func TestScanner_Scan(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := loadFixture(t)

	tests := []struct {
		name   string
		query  ScanQuery
		want   []string
		values map[string][]m.PathValue
	}{
		{
			name:  "everything",
			query: ScanQuery{},
			want:  []string{"Helo_Gazelle", "Infantry_Rifles", "Tank_Leopard2"},
		},
		{
			name:  "fuzzy name",
			query: ScanQuery{Name: "leo"},
			want:  []string{"Tank_Leopard2"},
		},
		{
			name:  "category",
			query: ScanQuery{Category: m.CategoryInfantry},
			want:  []string{"Infantry_Rifles"},
		},
		{
			name:  "path with values",
			query: ScanQuery{Path: "ModulesDescriptors[*].MaxSpeed"},
			want:  []string{"Helo_Gazelle", "Tank_Leopard2"},
			values: map[string][]m.PathValue{
				"Helo_Gazelle":  {{Path: "ModulesDescriptors[1].MaxSpeed", Text: "250"}},
				"Tank_Leopard2": {{Path: "ModulesDescriptors[5].MaxSpeed", Text: "64"}},
			},
		},
		{
			name:  "wildcard skips elements without the property",
			query: ScanQuery{Name: "tank", Path: "Weapons[*].Damage"},
			want:  []string{"Tank_Leopard2"},
			values: map[string][]m.PathValue{
				"Tank_Leopard2": {
					{Path: "Weapons[0].Damage", Text: "10"},
					{Path: "Weapons[2].Damage", Text: "2"},
				},
			},
		},
		{
			name:  "no match",
			query: ScanQuery{Category: m.CategoryAircraft},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := CollectHits(NewScanner().Scan(context.Background(), f, tt.query, 2))
			assert.Equal(t, tt.want, hitNames(hits))

			for _, h := range hits {
				if want, ok := tt.values[h.Unit]; ok {
					assert.Equal(t, want, h.Values, h.Unit)
				}
			}
		})
	}
}

func TestScanner_FuzzyScoreOrdersHits(t *testing.T) {
	f := loadFixture(t)

	hits := CollectHits(NewScanner().Scan(context.Background(), f, ScanQuery{Name: "a"}, 0))
	require.NotEmpty(t, hits)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestScanner_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := NewScanner().Scan(ctx, loadFixture(t), ScanQuery{}, 1)

	// The channel must close even though nobody reads while units are
	// processed.
	hits := CollectHits(ch)
	assert.LessOrEqual(t, len(hits), 3)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		unit string
		want m.Category
	}{
		{"Tank_Leopard2", m.CategoryTank},
		{"Infantry_Rifles", m.CategoryInfantry},
		{"Helo_Gazelle", m.CategoryHelicopter},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(fixtureUnit(t, tt.unit)))
		})
	}

	t.Run("tags outside TagSet are ignored", func(t *testing.T) {
		forest := parseForest(t, "U is TThing ( Name = 'Tank' )\n")
		u, ok := forest.Unit("U")
		require.True(t, ok)
		assert.Equal(t, m.CategoryNone, Classify(u))
	})
}
