package recommend

import (
	"sort"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/internal/ml"
	"github.com/dovra-dev/atelier-finder/pkg/geo"
	"github.com/dovra-dev/atelier-finder/pkg/zones"
)

// candidate carries one scored row through dedup, zone filtering and
// crowd-level assignment before it becomes a response entry.
type candidate struct {
	row        *domain.LocationActivityScore
	muse       float64
	crowdLevel string
}

// applyPredictions writes the predictor output onto the first
// min(len(scores), len(preds)) rows and returns how many were scored.
func applyPredictions(scores []domain.LocationActivityScore, preds []ml.PredictionResponse, now time.Time) int {
	n := len(scores)
	if len(preds) < n {
		n = len(preds)
	}

	for i := 0; i < n; i++ {
		p := preds[i]
		crowd := p.EstimatedCrowdNumber

		scores[i].CulturalActivityScore = p.CreativeActivityScore
		scores[i].CrowdScore = p.CrowdScore
		scores[i].EstimatedCrowdNumber = &crowd
		scores[i].MuseScore = composeMuse(p.CreativeActivityScore, p.CrowdScore)
		scores[i].MLPredictionDate = &now
	}

	return n
}

// composeMuse blends the two predictor sub-scores 60/40. A row missing
// either sub-score gets no muse score at all rather than a partial one.
func composeMuse(creative, crowd *float64) *float64 {
	if creative == nil || crowd == nil {
		return nil
	}

	muse := creativeWeight**creative + crowdWeight**crowd

	return &muse
}

func buildCandidates(scores []domain.LocationActivityScore) []candidate {
	out := make([]candidate, 0, len(scores))
	for i := range scores {
		if scores[i].MuseScore == nil {
			continue
		}

		out = append(out, candidate{
			row:  &scores[i],
			muse: *scores[i].MuseScore,
		})
	}

	return out
}

// dedupBySeparation collapses candidates closer than minSeparationMeters
// to each other, keeping the higher-scored one. Ties at exactly the
// threshold are not collisions. The survivors keep their input order.
func dedupBySeparation(cands []candidate) []candidate {
	if len(cands) < 2 {
		return cands
	}

	// Visit candidates best-first so each cluster's survivor is its
	// highest scorer.
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].muse > cands[order[b]].muse
	})

	kept := make([]bool, len(cands))
	var survivors []int
	for _, i := range order {
		collides := false
		for _, j := range survivors {
			d := geo.Distance(
				cands[i].row.Location.Latitude, cands[i].row.Location.Longitude,
				cands[j].row.Location.Latitude, cands[j].row.Location.Longitude,
			)
			if d < minSeparationMeters {
				collides = true
				break
			}
		}
		if !collides {
			kept[i] = true
			survivors = append(survivors, i)
		}
	}

	out := make([]candidate, 0, len(survivors))
	for i := range cands {
		if kept[i] {
			out = append(out, cands[i])
		}
	}

	return out
}

// filterByZone keeps candidates whose location name or taxi-zone name
// matches the requested zone key. Location names are often plain street
// addresses, so the taxi zone is what places most candidates. An unknown
// key matches nothing.
func filterByZone(cands []candidate, zoneKey string) []candidate {
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if zones.Matches(zoneKey, c.row.Location.LocationName) ||
			zones.Matches(zoneKey, c.row.TaxiZone.ZoneName) {
			out = append(out, c)
		}
	}

	return out
}

// assignCrowdLevels labels candidates by score rank: the bottom third
// Quiet, the top third Busy, the rest Moderate. Exactly three candidates
// with identical scores get forced variation by position instead, so a
// flat result set still shows all three levels.
func assignCrowdLevels(cands []candidate) {
	n := len(cands)
	if n == 0 {
		return
	}

	if n == 3 && cands[0].muse == cands[1].muse && cands[1].muse == cands[2].muse {
		cands[0].crowdLevel = domain.CrowdLevelBusy
		cands[1].crowdLevel = domain.CrowdLevelModerate
		cands[2].crowdLevel = domain.CrowdLevelQuiet
		return
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].muse < cands[order[b]].muse
	})

	third := n / 3
	for rank, i := range order {
		switch {
		case rank < third:
			cands[i].crowdLevel = domain.CrowdLevelQuiet
		case rank >= n-third:
			cands[i].crowdLevel = domain.CrowdLevelBusy
		default:
			cands[i].crowdLevel = domain.CrowdLevelModerate
		}
	}
}

// rankAndTruncate orders candidates by muse score descending, keeps the
// top maxResults and builds the response entries.
func rankAndTruncate(cands []candidate) []domain.LocationRecommendation {
	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].muse > cands[b].muse
	})

	if len(cands) > maxResults {
		cands = cands[:maxResults]
	}

	out := make([]domain.LocationRecommendation, 0, len(cands))
	for _, c := range cands {
		row := c.row
		estimated := 0
		if row.EstimatedCrowdNumber != nil {
			estimated = *row.EstimatedCrowdNumber
		}

		out = append(out, domain.LocationRecommendation{
			ID:                   row.Location.ID,
			ZoneName:             zones.ShortenLocationName(row.Location.LocationName),
			Latitude:             row.Location.Latitude,
			Longitude:            row.Location.Longitude,
			ActivityScore:        row.HistoricalActivityScore,
			MuseScore:            row.MuseScore,
			CrowdScore:           row.CrowdScore,
			EstimatedCrowdNumber: estimated,
			CrowdLevel:           c.crowdLevel,
			ScoreBreakdown: &domain.ScoreBreakdown{
				ActivityScore: row.HistoricalActivityScore,
				MuseScore:     row.MuseScore,
				CrowdScore:    row.CrowdScore,
				Explanation:   "Muse score blends creative activity fit with expected crowding",
			},
		})
	}

	return out
}
