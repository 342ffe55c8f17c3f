package scoring

// clauseMode selects how a clause combines its factor keys.
type clauseMode int

const (
	clauseAll clauseMode = iota // every listed factor must have fired
	clauseAny                   // at least one listed factor must have fired
)

// clause is one boolean condition over already-computed factor keys.
type clause struct {
	Mode    clauseMode
	Factors []string
}

// pattern is a configured cross-domain correlation. It fires when every
// listed domain has a record present and every clause holds (a pattern
// carries one or two clauses).
type pattern struct {
	Name        string
	Confidence  float64
	Description string
	Domains     []string
	Clauses     []clause
}

// patternTable is the static correlation configuration. Factor references
// are validated against the factor table at init; an unknown key is a
// configuration error and panics at load, never at evaluation.
var patternTable = []pattern{
	{
		Name:       "recidivism_risk",
		Confidence: 0.75,
		Description: "Financial stress combined with a prior criminal record " +
			"correlates with repeat offending.",
		Domains: []string{DomainFinance, DomainJudicial},
		Clauses: []clause{
			{Mode: clauseAll, Factors: []string{"financial_stress", "prior_criminal_record"}},
		},
	},
	{
		Name:       "instability_spiral",
		Confidence: 0.6,
		Description: "Concurrent mental health treatment and financial stress " +
			"indicate a compounding personal crisis.",
		Domains: []string{DomainHealth, DomainFinance},
		Clauses: []clause{
			{Mode: clauseAll, Factors: []string{"mental_health_treatment", "financial_stress"}},
		},
	},
	{
		Name:       "flight_risk",
		Confidence: 0.7,
		Description: "Border-area movement by a citizen with open or prior " +
			"judicial exposure suggests departure preparation.",
		Domains: []string{DomainLocation, DomainJudicial},
		Clauses: []clause{
			{Mode: clauseAny, Factors: []string{"border_proximity", "location_diversity"}},
			{Mode: clauseAny, Factors: []string{"pending_charges", "prior_criminal_record"}},
		},
	},
	{
		Name:       "radicalization_indicator",
		Confidence: 0.65,
		Description: "Watched-organization membership combined with unusual " +
			"movement patterns.",
		Domains: []string{DomainSocial, DomainLocation},
		Clauses: []clause{
			{Mode: clauseAll, Factors: []string{"dissident_affiliation"}},
			{Mode: clauseAny, Factors: []string{"location_diversity", "border_proximity"}},
		},
	},
	{
		Name:       "foreign_influence",
		Confidence: 0.55,
		Description: "A well-connected citizen maintaining regular foreign " +
			"contacts can amplify outside messaging.",
		Domains: []string{DomainSocial},
		Clauses: []clause{
			{Mode: clauseAll, Factors: []string{"foreign_contacts", "network_centrality"}},
		},
	},
}

// evalClause checks a clause against the set of fired factor keys.
func evalClause(cl clause, fired map[string]bool) bool {
	switch cl.Mode {
	case clauseAll:
		for _, key := range cl.Factors {
			if !fired[key] {
				return false
			}
		}
		return true
	case clauseAny:
		for _, key := range cl.Factors {
			if fired[key] {
				return true
			}
		}
		return false
	default:
		panic("scoring: unknown clause mode")
	}
}

// evalPatterns returns an alert for every pattern whose domain presence
// and clause conditions are simultaneously satisfied.
func evalPatterns(present map[string]bool, fired map[string]bool) []CorrelationAlert {
	var alerts []CorrelationAlert
	for _, p := range patternTable {
		domainsOK := true
		for _, d := range p.Domains {
			if !present[d] {
				domainsOK = false
				break
			}
		}
		if !domainsOK {
			continue
		}

		clausesOK := true
		for _, cl := range p.Clauses {
			if !evalClause(cl, fired) {
				clausesOK = false
				break
			}
		}
		if !clausesOK {
			continue
		}

		alerts = append(alerts, CorrelationAlert{
			Name:        p.Name,
			Confidence:  p.Confidence,
			Description: p.Description,
			Domains:     append([]string(nil), p.Domains...),
		})
	}
	return alerts
}
