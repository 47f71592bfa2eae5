package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
	"github.com/fatih/color"
)

var (
	colorBold  = color.New(color.Bold)
	colorPeak  = color.New(color.FgYellow)
	colorFaint = color.New(color.Faint)
)

type TableConfig struct {
	NameWidth  int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:  36,
		ValueWidth: 12,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// pad fills s to width runes; accented names would be misaligned by %-*s.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatValue(v float64, counts bool) string {
	if counts {
		return locale.FormatCount(v)
	}
	return locale.FormatPercent(v)
}

func peakOf(details []domain.ReportDetail) float64 {
	var peak float64
	for _, d := range details {
		if d.All > peak {
			peak = d.All
		}
	}
	return peak
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"bold": func(s string) string { return colorBold.Sprint(s) },
		"count": func(v float64) string {
			return locale.FormatCount(v)
		},
		"header": func() string {
			return fmt.Sprintf("| %s | %s | %s | %s |",
				pad("Grupo", c.config.NameWidth),
				pad("Todos", c.config.ValueWidth),
				pad("Feminino", c.config.ValueWidth),
				pad("Masculino", c.config.ValueWidth))
		},
		"formatRow": func(d domain.ReportDetail, section domain.ReportSection) string {
			all := pad(formatValue(d.All, section.Counts), c.config.ValueWidth)
			switch {
			case d.All == 0:
				all = colorFaint.Sprint(all)
			case d.All == peakOf(section.Details):
				all = colorPeak.Sprint(all)
			}
			return fmt.Sprintf("| %s | %s | %s | %s |",
				pad(d.Name, c.config.NameWidth),
				all,
				pad(formatValue(d.Female, section.Counts), c.config.ValueWidth),
				pad(formatValue(d.Male, section.Counts), c.config.ValueWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
	}

	tmpl := `
{{bold .Title}}
Scope: {{.Scope}}
Respondents: {{count .Counters.Total}} (Feminino {{count .Counters.Female}}, Masculino {{count .Counters.Male}})
{{range $section := .Sections}}
=== {{.Title}} ===
{{separator}}
{{header}}
{{separator}}
{{range .Details}}{{formatRow . $section}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
