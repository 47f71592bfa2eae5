package export

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/sisvan-atlas/pkg/locale"
	"github.com/de-tools/sisvan-atlas/pkg/models/domain"
)

// TextReporter outputs reports as plain tab-separated lines, one per group.
type TextReporter struct {
	writer io.Writer
}

func NewTextReporter(writer io.Writer) *TextReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &TextReporter{writer: writer}
}

func (c *TextReporter) Handle(report *domain.Report) error {
	tmpl := `# {{.Title}}
# {{.Scope}}
{{range $section := .Sections}}{{range .Details}}{{$section.Title}}	{{.Name}}	{{value .All $section.Counts}}	{{value .Female $section.Counts}}	{{value .Male $section.Counts}}
{{end}}{{end}}`
	t, err := template.New("report").Funcs(template.FuncMap{
		"value": func(v float64, counts bool) string {
			if counts {
				return locale.FormatCount(v)
			}
			return fmt.Sprintf("%.2f", v)
		},
	}).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
