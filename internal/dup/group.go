// Package dup finds near-duplicate SES listings in a batch of stored
// records. Postings are routinely re-sent by several staffing agencies with
// minor wording changes, so equality checks find almost nothing; a weighted
// fuzzy comparison across description, skills, and price does.
package dup

import (
	"github.com/agnivade/levenshtein"

	"ses-engine/internal/domain"
)

// Default scoring parameters, overridable from config.
const (
	DefaultThreshold         = 0.75
	DefaultDescriptionWeight = 0.5
	DefaultSkillsWeight      = 0.3
	DefaultPriceWeight       = 0.2
)

// Weights distribute the pair score across the three compared fields.
type Weights struct {
	Description float64
	Skills      float64
	Price       float64
}

// Grouper partitions record batches into duplicate groups.
type Grouper struct {
	Threshold float64
	Weights   Weights
}

// New returns a Grouper with the observed production parameters.
func New() Grouper {
	return Grouper{
		Threshold: DefaultThreshold,
		Weights: Weights{
			Description: DefaultDescriptionWeight,
			Skills:      DefaultSkillsWeight,
			Price:       DefaultPriceWeight,
		},
	}
}

// Member is a record pulled into a group, with its score against the seed.
type Member struct {
	Record domain.ProjectRecord `json:"record"`
	Score  float64              `json:"score"`
}

// Group is one duplicate group: the seed record plus every later record
// that scored at or above the threshold against it.
type Group struct {
	Seed    domain.ProjectRecord `json:"seed"`
	Members []Member             `json:"members"`
}

// Size counts all records in the group, seed included.
func (g Group) Size() int { return 1 + len(g.Members) }

// Records returns the group's records in discovery order, seed first.
func (g Group) Records() []domain.ProjectRecord {
	out := make([]domain.ProjectRecord, 0, g.Size())
	out = append(out, g.Seed)
	for _, m := range g.Members {
		out = append(out, m.Record)
	}
	return out
}

// Score computes the weighted similarity of two records.
//
// The price component compares the raw unit-price strings for equality, not
// the normalized form, so "80万円" and "800000円" contribute 0 even though
// they denote the same amount. Known quirk, kept because changing it
// changes grouping outcomes.
func (g Grouper) Score(a, b domain.ProjectRecord) float64 {
	descSim := Similarity(a.Description, b.Description)
	skillSim := Similarity(domain.JoinSkills(a.RequiredSkills), domain.JoinSkills(b.RequiredSkills))

	priceEq := 0.0
	if a.UnitPrice == b.UnitPrice {
		priceEq = 1.0
	}

	return g.Weights.Description*descSim + g.Weights.Skills*skillSim + g.Weights.Price*priceEq
}

// Similar reports whether two records score at or above the threshold.
func (g Grouper) Similar(a, b domain.ProjectRecord) bool {
	return g.Score(a, b) >= g.Threshold
}

// Group partitions the batch into duplicate groups in a single pass.
//
// Records are visited in input order. Each still-unassigned record seeds a
// candidate group, and every later unassigned record is compared against
// that seed only. A group is emitted when it gathered at least one member
// besides the seed.
//
// This is deliberately not transitive clustering: a record similar to a
// member but not to the seed stays outside the group and may seed its own
// later. O(n²) similarity evaluations; callers bound the batch (one time
// window, not the whole store) and run it offline.
func (g Grouper) Group(records []domain.ProjectRecord) []Group {
	assigned := make([]bool, len(records))

	var groups []Group
	for i := range records {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		grp := Group{Seed: records[i]}
		for j := i + 1; j < len(records); j++ {
			if assigned[j] {
				continue
			}
			score := g.Score(records[i], records[j])
			if score >= g.Threshold {
				grp.Members = append(grp.Members, Member{Record: records[j], Score: score})
				assigned[j] = true
			}
		}

		if len(grp.Members) > 0 {
			groups = append(groups, grp)
		}
	}
	return groups
}

// Similarity is normalized edit-distance similarity in [0,1]; 1 means the
// strings are identical. Distance is measured in runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}
