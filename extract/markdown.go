package extract

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/participa/models"
)

// Renderer converts extracted tables to Markdown. It holds a single
// goroutine-safe converter and is meant to be created once.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer creates a Renderer whose converter keeps table structure.
func NewRenderer() *Renderer {
	return &Renderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Markdown renders t as a Markdown table with the participation headers.
func (r *Renderer) Markdown(t *models.Table) (string, error) {
	return r.conv.ConvertString(TableHTML(t))
}

// TableHTML renders t back into a plain HTML table, header row first.
// All cell text is escaped.
func TableHTML(t *models.Table) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, h := range models.TableHeaders {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows() {
		b.WriteString("<tr>")
		for _, cell := range []string{row.Number, row.Channel, row.Subject, row.Period} {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
