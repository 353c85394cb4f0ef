package recommend

import (
	"fmt"
	"strings"

	"github.com/FranksOps/lumen/internal/scoring"
)

// Rule is a run-wide recommendation: when When holds, Action is emitted with
// the rule's type and priority.
type Rule struct {
	Name     string
	Type     string
	Priority Priority
	When     func(Input) bool
	Action   func(Input) string
}

func (r Rule) recommendation(action string) Recommendation {
	return Recommendation{Type: r.Type, Priority: r.Priority, Action: action}
}

// MarketRule is evaluated once per market against that market's score.
type MarketRule struct {
	Name     string
	Type     string
	Priority Priority
	When     func(scoring.MarketScore) bool
	Action   func(in Input, market string) string
}

func (r MarketRule) recommendation(action string) Recommendation {
	return Recommendation{Type: r.Type, Priority: r.Priority, Action: action}
}

func fixed(action string) func(Input) string {
	return func(Input) string { return action }
}

func reviewProfile(platform string) Rule {
	return Rule{
		Name:     platform + "-profile",
		Type:     "reviews",
		Priority: High,
		When:     func(in Input) bool { return !in.Offsite[platform] },
		Action: fixed(fmt.Sprintf("Stand up a %s profile and collect 15+ verified reviews. Reply to each.",
			strings.ToUpper(platform))),
	}
}

// GlobalRules are evaluated first, in order.
var GlobalRules = []Rule{
	{
		Name:     "organization-schema",
		Type:     "schema",
		Priority: High,
		When:     func(in Input) bool { return !in.Site.OrganizationSchema },
		Action:   fixed("Add Organization JSON-LD on homepage with name, URL, logo, and sameAs links to LinkedIn, G2, Crunchbase."),
	},
	{
		Name:     "faq-schema",
		Type:     "schema",
		Priority: Medium,
		When:     func(in Input) bool { return !in.Site.FAQSchema },
		Action:   fixed("Publish /faq with 12–20 real buyer Q&As and add FAQPage JSON-LD."),
	},
	{
		Name:     "hreflang",
		Type:     "i18n",
		Priority: Medium,
		When:     func(in Input) bool { return len(in.Markets) > 1 && !in.Site.Hreflang },
		Action:   fixed("Implement hreflang for target markets and a /locations hub with country sections."),
	},
	{
		Name:     "faq-route",
		Type:     "content",
		Priority: Medium,
		When:     func(in Input) bool { return !in.Site.FAQRoute },
		Action:   fixed("Create /faq route and link it from header or footer."),
	},
	{
		Name:     "wikipedia",
		Type:     "citations",
		Priority: Medium,
		When:     func(in Input) bool { return !in.Offsite["wikipedia"] },
		Action:   fixed("Create neutral Wikipedia page with third‑party press citations and matching Wikidata entry."),
	},
	reviewProfile("g2"),
	reviewProfile("capterra"),
	reviewProfile("trustpilot"),
}

// MarketRules are evaluated for each market, in order.
var MarketRules = []MarketRule{
	{
		Name:     "low-recognition",
		Type:     "content",
		Priority: High,
		When:     func(s scoring.MarketScore) bool { return s.RecognitionPct < RecognitionFloor },
		Action: func(in Input, m string) string {
			return fmt.Sprintf("%s: Publish 5 problem‑led pages and 15 short Q&A snippets targeting '%s' queries in %s. Add a local case study.",
				m, in.Category, m)
		},
	},
	{
		Name:     "low-competitive",
		Type:     "comparison",
		Priority: Medium,
		When:     func(s scoring.MarketScore) bool { return s.CompetitivePct < CompetitiveFloor },
		Action: func(in Input, m string) string {
			return fmt.Sprintf("%s: Build '%s vs %s' and 'Best %s in %s' pages with a simple buyers guide.",
				m, in.Brand, in.topCompetitor(), in.Category, m)
		},
	},
	{
		Name:     "low-sentiment",
		Type:     "reputation",
		Priority: Medium,
		When:     func(s scoring.MarketScore) bool { return s.SentimentPct < SentimentFloor },
		Action: func(_ Input, m string) string {
			return m + ": Run a reviews drive. Publish 3 named customer stories with outcomes and logos."
		},
	},
}

func (in Input) topCompetitor() string {
	if len(in.TopCompetitors) == 0 {
		return "top competitor"
	}
	return in.TopCompetitors[0].Name
}
