package csvimport

import (
	"strings"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

type accountTransition struct {
	triggers []string
	next     string
}

// sectionMarkers switch the account context for every following row of an
// SBI export until the next marker.
var sectionMarkers = []accountTransition{
	{[]string{"特定預り"}, models.AccountTaxable},
	{[]string{"NISA預り", "つみたて"}, models.AccountTaxAdvantaged},
	{[]string{"一般預り"}, models.AccountGeneral},
}

// accountValues classify the per-row account column of a Rakuten export.
var accountValues = []accountTransition{
	{[]string{"一般"}, models.AccountGeneral},
	{[]string{"NISA", "つみたて"}, models.AccountTaxAdvantaged},
	{[]string{"特定"}, models.AccountTaxable},
}

// accountContext is the account-type state carried across the lines of one
// file. It starts Taxable.
type accountContext struct {
	state string
}

func newAccountContext() *accountContext {
	return &accountContext{state: models.AccountTaxable}
}

// observe applies line as a marker. It reports whether the line was a
// marker, in which case it carries no data.
func (c *accountContext) observe(line string) bool {
	if next, ok := match(sectionMarkers, line); ok {
		c.state = next
		return true
	}
	return false
}

func (c *accountContext) current() string { return c.state }

// classifyAccount maps an account cell to a tag, defaulting to Taxable.
func classifyAccount(value string) string {
	if tag, ok := match(accountValues, value); ok {
		return tag
	}
	return models.AccountTaxable
}

func match(table []accountTransition, s string) (string, bool) {
	for _, t := range table {
		for _, trig := range t.triggers {
			if strings.Contains(s, trig) {
				return t.next, true
			}
		}
	}
	return "", false
}
