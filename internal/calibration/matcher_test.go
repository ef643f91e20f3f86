package calibration

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/xc-ratings/internal/models"
)

func TestMatchSharedAthletes(t *testing.T) {
	anchor := mileCourse("Anchor", 1, 1, true)
	candidate := mileCourse("Hilltop", 1, 1, false)

	shared := athletes(3)
	for _, id := range shared {
		addResult(anchor, id, 360, seasonStart)
		addResult(candidate, id, 370, seasonStart.AddDate(0, 0, 7))
	}
	// only on one side
	addResult(anchor, uuid.New(), 350, seasonStart)
	addResult(candidate, uuid.New(), 355, seasonStart)

	// five candidate races for one athlete reduce to their median
	for _, s := range []float64{380, 372, 300, 374, 376} {
		addResult(candidate, shared[0], s, seasonStart.AddDate(0, 1, 0))
	}

	result, err := MatchSharedAthletes(anchor, candidate)
	require.NoError(t, err)
	require.Len(t, result.Pairs, 3)

	for i := 1; i < len(result.Pairs); i++ {
		assert.Negative(t, bytes.Compare(result.Pairs[i-1].AthleteID[:], result.Pairs[i].AthleteID[:]))
	}

	for _, pair := range result.Pairs {
		assert.InDelta(t, 360, pair.AnchorMedianPace, 1e-6)
		if pair.AthleteID == shared[0] {
			require.Len(t, pair.Candidate, 6)
			assert.InDelta(t, 373, pair.CandidateMedianPace, 1e-6)
			assert.True(t, pair.Candidate[0].RaceDate.Before(pair.Candidate[1].RaceDate))
		} else {
			assert.InDelta(t, 370, pair.CandidateMedianPace, 1e-6)
		}
	}
}

func TestMatchSharedAthletesSkipsUnusableObservations(t *testing.T) {
	anchor := mileCourse("Anchor", 1, 1, true)
	candidate := mileCourse("Flats", 1, 1, false)
	id := uuid.New()
	addResult(anchor, id, 360, seasonStart)
	addResult(candidate, id, 0, seasonStart)
	addResult(candidate, uuid.Nil, 365, seasonStart)

	result, err := MatchSharedAthletes(anchor, candidate)
	require.NoError(t, err)
	assert.Empty(t, result.Pairs)
	assert.Equal(t, 2, result.SkippedObservations)
}

func TestMatchSharedAthletesInvalidGeometry(t *testing.T) {
	anchor := mileCourse("Anchor", 1, 1, true)
	candidate := mileCourse("Broken", 0, 1, false)

	_, err := MatchSharedAthletes(anchor, candidate)
	require.Error(t, err)
	assert.True(t, models.IsDataError(err))
}
