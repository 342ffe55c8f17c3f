package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danverh/panopticon/internal/records"
)

// Domain names as used in factor definitions and correlation patterns.
const (
	DomainHealth   = "health"
	DomainFinance  = "finance"
	DomainJudicial = "judicial"
	DomainLocation = "location"
	DomainSocial   = "social"
)

// checkFunc inspects a dossier and reports whether the factor fires,
// with a human-readable evidence string when it does.
type checkFunc func(d *records.Dossier) (bool, string)

// factorDef is one configured risk factor: a key, a fixed weight, the
// domain it reads, and the check that decides whether it fires.
type factorDef struct {
	Key    string
	Name   string
	Weight int
	Domain string
	Check  checkFunc
}

// Tunable detection thresholds.
const (
	debtIncomeRatioThreshold = 0.5
	cashMovementThreshold    = 10000
	zoneDiversityThreshold   = 8
	followerCountThreshold   = 5000
	foreignContactThreshold  = 3
)

// watchedAffiliations are organizations whose membership fires
// dissident_affiliation.
var watchedAffiliations = map[string]bool{
	"free_assembly_league": true,
	"border_aid_network":   true,
	"the_openspeech_forum": true,
}

// factorTable is the static risk factor configuration, loaded once.
// Weights are per factor key; the scorer sums the weights of all factors
// that fire and clamps to [0, 100].
var factorTable = []factorDef{
	{
		Key: "mental_health_treatment", Name: "Mental health treatment history",
		Weight: 8, Domain: DomainHealth,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Health == nil || d.Health.MentalHealthTreatments == 0 {
				return false, ""
			}
			return true, fmt.Sprintf("%d treatment episode(s) on file", d.Health.MentalHealthTreatments)
		},
	},
	{
		Key: "chronic_condition", Name: "Chronic severe health condition",
		Weight: 5, Domain: DomainHealth,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Health == nil {
				return false, ""
			}
			var names []string
			for _, c := range d.Health.Conditions {
				if c.Chronic && c.Severity == "severe" {
					names = append(names, c.Name)
				}
			}
			if len(names) == 0 {
				return false, ""
			}
			return true, "chronic severe condition(s): " + strings.Join(names, ", ")
		},
	},
	{
		Key: "financial_stress", Name: "Financial stress",
		Weight: 12, Domain: DomainFinance,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Finance == nil {
				return false, ""
			}
			var total float64
			var delinquent []string
			for _, debt := range d.Finance.Debts {
				total += debt.Amount
				if debt.Delinquent {
					delinquent = append(delinquent, fmt.Sprintf("%s %.0f", debt.Kind, debt.Amount))
				}
			}
			ratio := 0.0
			if d.Finance.AnnualIncome > 0 {
				ratio = total / d.Finance.AnnualIncome
			}
			switch {
			case len(delinquent) > 0:
				return true, "delinquent debt: " + strings.Join(delinquent, "; ")
			case ratio > debtIncomeRatioThreshold:
				return true, fmt.Sprintf("debt-to-income ratio %.2f exceeds %.2f", ratio, debtIncomeRatioThreshold)
			default:
				return false, ""
			}
		},
	},
	{
		Key: "large_cash_movements", Name: "Large cash movements",
		Weight: 10, Domain: DomainFinance,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Finance == nil || d.Finance.CashWithdrawals90d <= cashMovementThreshold {
				return false, ""
			}
			return true, fmt.Sprintf("%.0f withdrawn in cash over 90 days", d.Finance.CashWithdrawals90d)
		},
	},
	{
		Key: "prior_criminal_record", Name: "Prior criminal record",
		Weight: 25, Domain: DomainJudicial,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Judicial == nil || len(d.Judicial.Convictions) == 0 {
				return false, ""
			}
			var offenses []string
			for _, c := range d.Judicial.Convictions {
				label := c.Offense
				if c.Violent {
					label += " (violent)"
				}
				offenses = append(offenses, label)
			}
			return true, "conviction(s): " + strings.Join(offenses, ", ")
		},
	},
	{
		Key: "pending_charges", Name: "Pending criminal charges",
		Weight: 15, Domain: DomainJudicial,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Judicial == nil || d.Judicial.PendingCharges == 0 {
				return false, ""
			}
			return true, fmt.Sprintf("%d charge(s) pending", d.Judicial.PendingCharges)
		},
	},
	{
		Key: "location_diversity", Name: "Excessive location diversity",
		Weight: 10, Domain: DomainLocation,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Location == nil {
				return false, ""
			}
			zones := map[string]bool{}
			for _, v := range d.Location.Visits {
				zones[v.Zone] = true
			}
			if len(zones) < zoneDiversityThreshold {
				return false, ""
			}
			return true, fmt.Sprintf("presence recorded in %d distinct zones", len(zones))
		},
	},
	{
		Key: "border_proximity", Name: "Border area presence",
		Weight: 12, Domain: DomainLocation,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Location == nil {
				return false, ""
			}
			count := 0
			for _, v := range d.Location.Visits {
				if v.NearBorder {
					count++
				}
			}
			if count == 0 {
				return false, ""
			}
			return true, fmt.Sprintf("%d visit(s) to border-adjacent zones", count)
		},
	},
	{
		Key: "network_centrality", Name: "Network centrality",
		Weight: 10, Domain: DomainSocial,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Social == nil || d.Social.FollowerCount < followerCountThreshold {
				return false, ""
			}
			return true, fmt.Sprintf("%d followers", d.Social.FollowerCount)
		},
	},
	{
		Key: "foreign_contacts", Name: "Foreign contacts",
		Weight: 14, Domain: DomainSocial,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Social == nil || d.Social.ForeignContacts < foreignContactThreshold {
				return false, ""
			}
			return true, fmt.Sprintf("%d regular foreign contact(s)", d.Social.ForeignContacts)
		},
	},
	{
		Key: "dissident_affiliation", Name: "Watched-organization affiliation",
		Weight: 18, Domain: DomainSocial,
		Check: func(d *records.Dossier) (bool, string) {
			if d.Social == nil {
				return false, ""
			}
			var hits []string
			for _, a := range d.Social.Affiliations {
				if watchedAffiliations[a] {
					hits = append(hits, a)
				}
			}
			if len(hits) == 0 {
				return false, ""
			}
			return true, "member of: " + strings.Join(hits, ", ")
		},
	},
}

// levelBand maps a contiguous score range to a risk level.
type levelBand struct {
	Min, Max int
	Level    Level
}

// levelBands partitions [0, 100] with no gaps and no overlaps.
// Validated in init.
var levelBands = []levelBand{
	{0, 20, LevelLow},
	{21, 40, LevelModerate},
	{41, 60, LevelElevated},
	{61, 80, LevelHigh},
	{81, 100, LevelSevere},
}

// Classify maps a score to its risk level.
func Classify(score int) Level {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	for _, b := range levelBands {
		if score >= b.Min && score <= b.Max {
			return b.Level
		}
	}
	// Unreachable after init validation.
	panic(fmt.Sprintf("scoring: score %d matched no level band", score))
}

// FactorWeight returns the configured weight for a factor key, or 0 if
// the key is unknown.
func FactorWeight(key string) int {
	for _, f := range factorTable {
		if f.Key == key {
			return f.Weight
		}
	}
	return 0
}

func init() {
	validateConfig()
}

// validateConfig fails fast on malformed static configuration: gaps or
// overlaps in the level bands, duplicate factor keys, or correlation
// patterns referencing unknown factor keys.
func validateConfig() {
	bands := append([]levelBand(nil), levelBands...)
	sort.Slice(bands, func(i, j int) bool { return bands[i].Min < bands[j].Min })
	if bands[0].Min != 0 || bands[len(bands)-1].Max != 100 {
		panic("scoring: level bands must cover [0, 100]")
	}
	for i := 1; i < len(bands); i++ {
		if bands[i-1].Max+1 != bands[i].Min {
			panic(fmt.Sprintf("scoring: level bands %q and %q are not contiguous",
				bands[i-1].Level, bands[i].Level))
		}
	}

	keys := map[string]bool{}
	for _, f := range factorTable {
		if keys[f.Key] {
			panic("scoring: duplicate factor key: " + f.Key)
		}
		if f.Weight <= 0 {
			panic("scoring: factor weight must be positive: " + f.Key)
		}
		keys[f.Key] = true
	}

	for _, p := range patternTable {
		for _, cl := range p.Clauses {
			for _, key := range cl.Factors {
				if !keys[key] {
					panic(fmt.Sprintf("scoring: pattern %q references unknown factor %q", p.Name, key))
				}
			}
		}
	}
}
