package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ecoledesexcellents/ecole-ui/internal/domain/model"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

// render writes v as indented JSON, or the table built by rows.
func (a *app) render(v any, rows func() pterm.TableData) error {
	if a.flags.output == outputJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return renderTable(a.out, rows())
}

func renderTable(w io.Writer, data pterm.TableData) error {
	if len(data) <= 1 {
		writeln(w, pterm.Info.Sprint("Aucun résultat"))
		return nil
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	writeln(w, out)
	return nil
}

func (a *app) success(format string, args ...any) {
	if a.flags.output == outputJSON {
		return
	}
	writeln(a.out, pterm.Success.Sprintf(format, args...))
}

func refsString(refs []model.Ref) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if s := r.String(); s != "" {
			names = append(names, s)
		}
	}
	return strings.Join(names, ", ")
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
