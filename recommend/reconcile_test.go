package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showroom/inventory"
)

func TestReconcile_FallbackOnFailure(t *testing.T) {
	catalog := catalogOf(2)
	r := NewReconciler(ReconcilerOpts{})

	got := r.Reconcile("경차", Failed(FailureServiceError, "boom"), catalog)

	require.Len(t, got, 2)
	for i, e := range got {
		assert.Equal(t, catalog[i].ID, e.ID)
		assert.Contains(t, e.MatchReason, "경차")
	}
	assert.Equal(t, "경차에 적합할 수 있는 차량입니다.", got[0].MatchReason)
}

func TestReconcile_FallbackSize(t *testing.T) {
	r := NewReconciler(ReconcilerOpts{})
	for _, n := range []int{0, 1, 3, 6} {
		got := r.Reconcile("q", Failed(FailureTimeout, ""), catalogOf(n))
		assert.Len(t, got, min(3, n))
		assert.NotNil(t, got)
	}
}

func TestReconcile_MatchesInRankingOrder(t *testing.T) {
	catalog := catalogOf(5)
	res := Succeeded([]Candidate{
		{ID: 4, MatchReason: "best"},
		{ID: 2, MatchReason: "good"},
		{ID: 5, MatchReason: "fine"},
	})

	got := NewReconciler(ReconcilerOpts{}).Reconcile("SUV", res, catalog)

	require.Len(t, got, 3)
	assert.Equal(t, []int{4, 2, 5}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, Enriched{
		ID:          4,
		Name:        catalog[3].Name,
		Price:       catalog[3].Price,
		Year:        catalog[3].Year,
		Mileage:     catalog[3].Mileage,
		FuelType:    catalog[3].FuelType,
		CarType:     catalog[3].CarType,
		MainImage:   catalog[3].MainImage,
		MatchReason: "best",
	}, got[0])
}

func TestReconcile_DropsUnknownIDs(t *testing.T) {
	catalog := catalogOf(3)
	res := Succeeded([]Candidate{{ID: 99, MatchReason: "ghost"}, {ID: 2, MatchReason: "real"}})

	got := NewReconciler(ReconcilerOpts{}).Reconcile("q", res, catalog)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, "real", got[0].MatchReason)
}

func TestReconcile_AllGhostsFallBack(t *testing.T) {
	catalog := catalogOf(4)
	res := Succeeded([]Candidate{{ID: 99, MatchReason: "ghost"}})
	r := NewReconciler(ReconcilerOpts{})

	got := r.Reconcile("하이브리드", res, catalog)

	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, r.IsFallback(res, catalog))
}

func TestReconcile_EmptySuccessFallsBack(t *testing.T) {
	catalog := catalogOf(4)
	got := NewReconciler(ReconcilerOpts{}).Reconcile("q", Succeeded(nil), catalog)
	assert.Len(t, got, 3)
}

func TestReconcile_DuplicateCandidatesKept(t *testing.T) {
	res := Succeeded([]Candidate{{ID: 1, MatchReason: "a"}, {ID: 1, MatchReason: "b"}})
	got := NewReconciler(ReconcilerOpts{}).Reconcile("q", res, catalogOf(2))

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MatchReason)
	assert.Equal(t, "b", got[1].MatchReason)
}

func TestReconcile_CustomOptions(t *testing.T) {
	r := NewReconciler(ReconcilerOpts{FallbackSize: 1, ReasonFormat: "Might suit %q."})
	got := r.Reconcile("a city car", Failed(FailureTimeout, ""), catalogOf(3))

	require.Len(t, got, 1)
	assert.Equal(t, `Might suit "a city car".`, got[0].MatchReason)
}

func TestReconcile_DoesNotAliasCatalog(t *testing.T) {
	catalog := catalogOf(2)
	got := NewReconciler(ReconcilerOpts{}).Reconcile("q", Succeeded([]Candidate{{ID: 1, MatchReason: "x"}}), catalog)

	catalog[0].Name = "changed"
	assert.Equal(t, "Avante", got[0].Name)
}

func TestReconcile_IsFallback(t *testing.T) {
	catalog := []inventory.Record{{ID: 1}, {ID: 2}}
	r := NewReconciler(ReconcilerOpts{})

	assert.True(t, r.IsFallback(Failed(FailureTimeout, ""), catalog))
	assert.True(t, r.IsFallback(Succeeded(nil), catalog))
	assert.False(t, r.IsFallback(Succeeded([]Candidate{{ID: 2}}), catalog))
}
