package models

// TableHeaders are the participation table column titles, in source order.
var TableHeaders = [4]string{
	"Número",
	"Meio de Participação",
	"Objeto",
	"Período de Contribuição",
}

// Table holds the scraped participation table as four index-aligned columns.
// All four slices always have the same length, one entry per data row, in
// table row order.
type Table struct {
	Numbers  []string `json:"numbers"`
	Channels []string `json:"channels"`
	Subjects []string `json:"subjects"`
	Periods  []string `json:"periods"`
}

// Row is a single data row of the participation table.
type Row struct {
	Number  string `json:"number"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Period  string `json:"period"`
}

// Append adds one row to all four columns.
func (t *Table) Append(r Row) {
	t.Numbers = append(t.Numbers, r.Number)
	t.Channels = append(t.Channels, r.Channel)
	t.Subjects = append(t.Subjects, r.Subject)
	t.Periods = append(t.Periods, r.Period)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Numbers)
}

// Rows zips the columns back into rows.
func (t *Table) Rows() []Row {
	rows := make([]Row, t.Len())
	for i := range rows {
		rows[i] = Row{
			Number:  t.Numbers[i],
			Channel: t.Channels[i],
			Subject: t.Subjects[i],
			Period:  t.Periods[i],
		}
	}
	return rows
}
