package extract

import (
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/participa/models"
)

// CompileSelector parses a CSS selector into a matcher usable with goquery's
// FindMatcher. An invalid selector is reported as INVALID_INPUT.
func CompileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput,
			"invalid table selector "+selector,
			err,
		)
	}
	return sel, nil
}
