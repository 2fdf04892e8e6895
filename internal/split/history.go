package split

import (
	"sort"

	"github.com/bonsplit/bonsplit/internal/model"
)

// SoloInsight reports a product that one person pays for essentially
// alone, derived from the share history log.
type SoloInsight struct {
	Name      string
	Person    string
	Purchases int
	SoloCount int
	Ratio     float64
}

const (
	soloShareThreshold = 0.999
	soloRatioThreshold = 0.8
	soloMinPurchases   = 2
)

// SoloBuyers scans the history log for products one person carried
// (share ~1.0) in at least 80% of at least two purchases. The result is
// sorted by ratio, then name, for stable display.
func SoloBuyers(records []model.ShareRecord) []SoloInsight {
	type tally struct {
		solo  map[string]int
		total int
	}

	byName := make(map[string]*tally)
	for _, rec := range records {
		t := byName[rec.Name]
		if t == nil {
			t = &tally{solo: make(map[string]int)}
			byName[rec.Name] = t
		}
		t.total++
		for person, fraction := range rec.Shares {
			if fraction >= soloShareThreshold {
				t.solo[person]++
			}
		}
	}

	var insights []SoloInsight
	for name, t := range byName {
		if t.total < soloMinPurchases {
			continue
		}
		for person, count := range t.solo {
			ratio := float64(count) / float64(t.total)
			if ratio >= soloRatioThreshold {
				insights = append(insights, SoloInsight{
					Name:      name,
					Person:    person,
					Purchases: t.total,
					SoloCount: count,
					Ratio:     ratio,
				})
			}
		}
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].Ratio != insights[j].Ratio {
			return insights[i].Ratio > insights[j].Ratio
		}
		return insights[i].Name < insights[j].Name
	})

	return insights
}
