package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/participa/models"
)

const defaultSelector = "table#tableContent"

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se), "want *models.ScrapeError, got %T", err)
	require.Equal(t, code, se.Code)
}

func TestTable_SingleRow(t *testing.T) {
	page := `<table id="tableContent"><tr><th>...</th></tr><tr><td>1</td><td>Web</td><td>Rule X</td><td>Jan-Feb</td></tr></table>`

	got, err := Table(page, defaultSelector)
	require.NoError(t, err)

	want := &models.Table{
		Numbers:  []string{"1"},
		Channels: []string{"Web"},
		Subjects: []string{"Rule X"},
		Periods:  []string{"Jan-Feb"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_TrimsAndKeepsOrder(t *testing.T) {
	page := `<html><head><title> Participação </title></head><body>
<div><table id="other"><tr><td>x</td><td>x</td><td>x</td><td>x</td></tr></table></div>
<table id="tableContent">
  <thead><tr><th>Número</th><th>Meio</th><th>Objeto</th><th>Período</th></tr></thead>
  <tbody>
    <tr><td>  001/2024 </td><td>
        Consulta Pública</td><td>Norma de referência &amp; outorga</td><td>01/02 a 01/03 </td></tr>
    <tr><td>002/2024</td><td>Tomada de Subsídios</td><td><a href="/x">Regulação</a></td><td>05/03 a 05/04</td><td>extra</td></tr>
    <tr><td>003/2024</td><td>Audiência</td><td></td><td>-</td></tr>
  </tbody>
</table></body></html>`

	got, err := Table(page, defaultSelector)
	require.NoError(t, err)

	want := []models.Row{
		{Number: "001/2024", Channel: "Consulta Pública", Subject: "Norma de referência & outorga", Period: "01/02 a 01/03"},
		{Number: "002/2024", Channel: "Tomada de Subsídios", Subject: "Regulação", Period: "05/03 a 05/04"},
		{Number: "003/2024", Channel: "Audiência", Subject: "", Period: "-"},
	}
	if diff := cmp.Diff(want, got.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Participação", Title(page))
}

func TestTable_ColumnsAlwaysAligned(t *testing.T) {
	for n := 0; n <= 25; n++ {
		var b strings.Builder
		b.WriteString(`<table id="tableContent"><tr><th>h</th></tr>`)
		for i := 0; i < n; i++ {
			b.WriteString(`<tr><td>n</td><td>c</td><td>s</td><td>p</td></tr>`)
		}
		b.WriteString(`</table>`)

		got, err := Table(b.String(), defaultSelector)
		require.NoError(t, err)
		require.Equal(t, n, got.Len())
		require.Len(t, got.Channels, n)
		require.Len(t, got.Subjects, n)
		require.Len(t, got.Periods, n)
	}
}

func TestTable_HeaderOnlyAndEmpty(t *testing.T) {
	got, err := Table(`<table id="tableContent"><tr><th>h</th></tr></table>`, defaultSelector)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.Len())

	got, err = Table(`<table id="tableContent"></table>`, defaultSelector)
	require.NoError(t, err)
	require.Zero(t, got.Len())
}

func TestTable_NotFound(t *testing.T) {
	_, err := Table(`<table id="somethingElse"><tr><td>1</td></tr></table>`, defaultSelector)
	requireCode(t, err, models.ErrCodeTableNotFound)

	_, err = Table(``, defaultSelector)
	requireCode(t, err, models.ErrCodeTableNotFound)
}

func TestTable_ShortRowFaults(t *testing.T) {
	page := `<table id="tableContent">
<tr><th>h</th></tr>
<tr><td>1</td><td>Web</td><td>Rule X</td><td>Jan-Feb</td></tr>
<tr><td>2</td><td>Web</td><td>Rule Y</td></tr>
</table>`

	got, err := Table(page, defaultSelector)
	require.Nil(t, got)
	requireCode(t, err, models.ErrCodeStructureMismatch)
	require.Contains(t, err.Error(), "row 2 has 3 cells")
}

func TestTable_InvalidSelector(t *testing.T) {
	_, err := Table(`<table></table>`, "table[")
	requireCode(t, err, models.ErrCodeInvalidInput)
}

func TestTitle_Missing(t *testing.T) {
	require.Equal(t, "", Title(`<html><body>no title</body></html>`))
}
