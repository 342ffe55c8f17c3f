// Package catalog holds the narrative content the simulation selects
// from: article headlines and summaries keyed by outlet stance, protest
// descriptions, and exposure copy. The engine picks entries at random
// but never authors text of its own.
package catalog

import (
	"strings"

	"github.com/danverh/panopticon/internal/chance"
)

// ArticleTemplate is a headline/summary pair with {action}, {target} and
// {neighborhood} placeholders filled in at selection time.
type ArticleTemplate struct {
	Headline string
	Summary  string
}

var triggeredTemplates = map[string][]ArticleTemplate{
	"critical": {
		{
			Headline: "State Escalates: {action} Ordered Against {target}",
			Summary:  "Sources inside the ministry confirm another {action} directive. Rights groups call the pattern unmistakable.",
		},
		{
			Headline: "Documents Reveal Routine Use of {action}",
			Summary:  "Leaked directives show {action} has become standard procedure. The target in the latest case: {target}.",
		},
		{
			Headline: "Who Watches the Watchers? {target} Latest to Face {action}",
			Summary:  "Our investigation ties the case of {target} to a widening program of algorithmic flagging.",
		},
	},
	"independent": {
		{
			Headline: "Authorities Carry Out {action} in Ongoing Security Push",
			Summary:  "Officials confirmed an {action} concerning {target}. The ministry declined to comment on selection criteria.",
		},
		{
			Headline: "{action} Reported; Questions Remain",
			Summary:  "Witnesses describe an {action} targeting {target}. Independent verification is ongoing.",
		},
	},
	"state_aligned": {
		{
			Headline: "Security Services Act Decisively Against Identified Threat",
			Summary:  "A necessary {action} was completed without incident. Citizens are reminded that vigilance keeps the nation safe.",
		},
		{
			Headline: "Order Maintained: Preventive Measure Concludes Successfully",
			Summary:  "The ministry confirms a routine {action}. No disruption to public life occurred.",
		},
	},
}

var randomTemplates = []ArticleTemplate{
	{
		Headline: "Quiet Streets, Watchful Eyes: Life Under the New Cameras",
		Summary:  "Residents report growing unease as checkpoint density increases across the districts.",
	},
	{
		Headline: "Foreign Delegation Raises Monitoring Program in Trade Talks",
		Summary:  "Diplomats privately pressed officials on the scope of the citizen scoring system.",
	},
	{
		Headline: "Ministry Touts Record Quarter for Predictive Flagging",
		Summary:  "Internal figures celebrate throughput. Critics note no data on false positives was released.",
	},
	{
		Headline: "Neighborhood Watch Programs See Surge in Anonymous Tips",
		Summary:  "Officials welcome the cooperation. Sociologists warn of score-settling among neighbors.",
	},
}

var agitatorExposureTemplates = []ArticleTemplate{
	{
		Headline: "EXPOSED: State Agent Incited the Violence in {neighborhood}",
		Summary:  "Footage confirms the man who threw the first stone was on the ministry payroll. The protest he infiltrated was peaceful until he acted.",
	},
	{
		Headline: "Manufactured Unrest: Planted Provocateur Unmasked at {neighborhood} Protest",
		Summary:  "Documents and witness video identify a government plant at the center of the clashes. Calls for an international inquiry are mounting.",
	},
}

var streisandTemplates = []ArticleTemplate{
	{
		Headline: "They Tried to Silence This Story. Read It Anyway.",
		Summary:  "An attempt to shutter {target} has backfired, drawing global attention to the reporting it sought to bury.",
	},
	{
		Headline: "Press Crackdown Fails as Suppressed Report Spreads Worldwide",
		Summary:  "The move against {target} turned a local story into an international headline within hours.",
	},
}

var protestDescriptions = []string{
	"A crowd is gathering outside the district registry office in {neighborhood}, chanting against the flagging program.",
	"Residents of {neighborhood} have blocked the main thoroughfare, holding photographs of detained neighbors.",
	"A candlelight assembly in {neighborhood} is swelling past the permitted square.",
	"Workers in {neighborhood} walked off shift and are marching toward the checkpoint line.",
}

// Neighborhoods is the fixed set of districts protests and raids occur in.
var Neighborhoods = []string{
	"Harbor District",
	"Old Mill Quarter",
	"Northgate",
	"The Terraces",
	"Station Row",
	"Cathedral Ward",
}

func fill(t ArticleTemplate, repl *strings.Replacer) ArticleTemplate {
	return ArticleTemplate{
		Headline: repl.Replace(t.Headline),
		Summary:  repl.Replace(t.Summary),
	}
}

// PickTriggered selects a triggered-coverage template for an outlet stance.
// Unknown stances fall back to the independent pool.
func PickTriggered(src chance.Source, stance, action, target string) ArticleTemplate {
	pool, ok := triggeredTemplates[stance]
	if !ok {
		pool = triggeredTemplates["independent"]
	}
	repl := strings.NewReplacer("{action}", humanize(action), "{target}", target)
	return fill(pool[src.IntN(len(pool))], repl)
}

// PickRandom selects an ambient background-news template.
func PickRandom(src chance.Source) ArticleTemplate {
	return randomTemplates[src.IntN(len(randomTemplates))]
}

// PickAgitatorExposure selects copy for a discovered planted agitator.
func PickAgitatorExposure(src chance.Source, neighborhood string) ArticleTemplate {
	repl := strings.NewReplacer("{neighborhood}", neighborhood)
	return fill(agitatorExposureTemplates[src.IntN(len(agitatorExposureTemplates))], repl)
}

// PickStreisand selects copy for a failed press suppression.
func PickStreisand(src chance.Source, outlet string) ArticleTemplate {
	repl := strings.NewReplacer("{target}", outlet)
	return fill(streisandTemplates[src.IntN(len(streisandTemplates))], repl)
}

// PickProtestDescription selects a protest scene description.
func PickProtestDescription(src chance.Source, neighborhood string) string {
	repl := strings.NewReplacer("{neighborhood}", neighborhood)
	return repl.Replace(protestDescriptions[src.IntN(len(protestDescriptions))])
}

// PickNeighborhood selects a district at random.
func PickNeighborhood(src chance.Source) string {
	return Neighborhoods[src.IntN(len(Neighborhoods))]
}

// humanize turns an action type key into display text, e.g.
// "hospital_arrest" becomes "hospital arrest".
func humanize(actionType string) string {
	return strings.ReplaceAll(actionType, "_", " ")
}
