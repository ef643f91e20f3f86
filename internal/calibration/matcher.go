package calibration

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/normalize"
)

// PacedObservation is an observation with its difficulty-adjusted pace
type PacedObservation struct {
	models.Observation
	Pace float64
}

// SharedAthletePair holds one athlete's observations on both compared courses
type SharedAthletePair struct {
	AthleteID           uuid.UUID
	Anchor              []PacedObservation
	Candidate           []PacedObservation
	AnchorMedianPace    float64
	CandidateMedianPace float64
}

// MatchResult is the matcher output plus bookkeeping for reporting
type MatchResult struct {
	Pairs               []SharedAthletePair
	SkippedObservations int
}

// MatchSharedAthletes finds athletes present on both courses and reduces each
// side to its median pace so prolific athletes do not outweigh single races.
func MatchSharedAthletes(anchor, candidate *models.CourseObservations) (*MatchResult, error) {
	anchorByAthlete, skippedAnchor, err := paceByAthlete(anchor)
	if err != nil {
		return nil, err
	}
	candidateByAthlete, skippedCandidate, err := paceByAthlete(candidate)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{SkippedObservations: skippedAnchor + skippedCandidate}
	for athleteID, candidateObs := range candidateByAthlete {
		anchorObs, ok := anchorByAthlete[athleteID]
		if !ok {
			continue
		}
		result.Pairs = append(result.Pairs, SharedAthletePair{
			AthleteID:           athleteID,
			Anchor:              anchorObs,
			Candidate:           candidateObs,
			AnchorMedianPace:    medianPace(anchorObs),
			CandidateMedianPace: medianPace(candidateObs),
		})
	}

	sort.Slice(result.Pairs, func(i, j int) bool {
		return bytes.Compare(result.Pairs[i].AthleteID[:], result.Pairs[j].AthleteID[:]) < 0
	})
	return result, nil
}

func paceByAthlete(co *models.CourseObservations) (map[uuid.UUID][]PacedObservation, int, error) {
	if err := co.Course.ValidateGeometry(); err != nil {
		return nil, 0, err
	}

	byAthlete := make(map[uuid.UUID][]PacedObservation)
	skipped := 0
	for _, obs := range co.Observations {
		if obs.RaceTime <= 0 || obs.AthleteID == uuid.Nil {
			skipped++
			continue
		}
		pace, err := normalize.PaceSeconds(obs.RaceTime, &co.Course)
		if err != nil {
			return nil, 0, err
		}
		byAthlete[obs.AthleteID] = append(byAthlete[obs.AthleteID], PacedObservation{Observation: obs, Pace: pace})
	}

	for _, list := range byAthlete {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].RaceDate.Equal(list[j].RaceDate) {
				return list[i].RaceDate.Before(list[j].RaceDate)
			}
			return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
		})
	}
	return byAthlete, skipped, nil
}

func medianPace(list []PacedObservation) float64 {
	paces := make([]float64, len(list))
	for i, obs := range list {
		paces[i] = obs.Pace
	}
	return Median(paces)
}
