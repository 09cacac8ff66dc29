// Package extract turns rendered page HTML into the participation table.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/participa/models"
)

// columns is the number of leading cells read from every data row.
const columns = 4

// Table locates the table matching selector in rawHTML and reads every row
// after the header into four aligned columns.
//
// Failure modes, each a *models.ScrapeError:
//   - selector does not parse          → INVALID_INPUT
//   - no element matches selector      → TABLE_NOT_FOUND
//   - a data row has fewer than 4 <td> → STRUCTURE_MISMATCH
//
// Cells past the fourth are ignored. A table with only a header row yields
// an empty, non-nil Table.
func Table(rawHTML, selector string) (*models.Table, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	return TableMatch(rawHTML, selector, sel)
}

// TableMatch is Table with a precompiled selector. name is only used in
// error messages.
func TableMatch(rawHTML, name string, sel cascadia.Selector) (*models.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal, "failed to parse page HTML", err)
	}

	tbl := doc.FindMatcher(sel).First()
	if tbl.Length() == 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeTableNotFound,
			fmt.Sprintf("no element matches %q", name),
			nil,
		)
	}

	result := &models.Table{
		Numbers:  []string{},
		Channels: []string{},
		Subjects: []string{},
		Periods:  []string{},
	}

	rows := tbl.Find("tr")
	if rows.Length() <= 1 {
		return result, nil
	}

	var rowErr error
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < columns {
			rowErr = models.NewScrapeError(
				models.ErrCodeStructureMismatch,
				fmt.Sprintf("row %d has %d cells, want at least %d", i+1, cells.Length(), columns),
				nil,
			)
			return false
		}
		result.Append(models.Row{
			Number:  cellText(cells, 0),
			Channel: cellText(cells, 1),
			Subject: cellText(cells, 2),
			Period:  cellText(cells, 3),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return result, nil
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}
