package report

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/timelocker/tracker/pkg/athena"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Pages renders the HTML pages of the site.
type Pages struct {
	static string
}

// NewPages creates Pages that link assets under staticBaseURL.
func NewPages(staticBaseURL string) *Pages {
	return &Pages{static: strings.TrimSuffix(staticBaseURL, "/")}
}

type pageView struct {
	Title   string
	Static  string
	Columns []columnView
	Rows    [][]cellView
}

type columnView struct {
	Name  string
	Class string
}

type cellView struct {
	Class string
	Text  string
	Image string
}

func (p *Pages) render(name string, view pageView) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, view); err != nil {
		return nil, eris.Wrapf(err, "report: render %s", name)
	}
	return buf.Bytes(), nil
}

// Home renders the front end shell page.
func (p *Pages) Home() ([]byte, error) {
	return p.render("home", pageView{Static: p.static})
}

// Table renders rs as a titled table. Numeric columns get the "number"
// class and character names are shown with their portrait.
func (p *Pages) Table(title string, rs *athena.ResultSet) ([]byte, error) {
	view := pageView{Title: title, Static: p.static}
	classes := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		classes[i] = c.Name
		if c.Numeric() {
			classes[i] += " number"
		}
		view.Columns = append(view.Columns, columnView{Name: c.Name, Class: classes[i]})
	}
	for _, row := range rs.Rows {
		values := row.Values()
		cells := make([]cellView, len(rs.Columns))
		for i, c := range rs.Columns {
			var v string
			if i < len(values) && values[i] != nil {
				v = *values[i]
			}
			cells[i] = cellView{Class: classes[i], Text: v}
			switch {
			case c.Name == colCharacter:
				cells[i].Image = p.characterImage(v)
			case c.Type == "double":
				cells[i].Text = truncate(v)
			}
		}
		view.Rows = append(view.Rows, cells)
	}
	return p.render("table", view)
}

func (p *Pages) characterImage(name string) string {
	return p.static + "/img/" + url.PathEscape(name) + "@65x65.png"
}

// truncate shows a double as its integer part.
func truncate(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	return strconv.FormatInt(int64(math.Trunc(f)), 10)
}
