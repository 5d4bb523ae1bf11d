package main

import (
	"fmt"
	"io"
	"os"

	"blog_backend/internal/platform/output"

	"github.com/fatih/color"
)

type printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

func newPrinter(out, err io.Writer, colors bool) *printer {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		colors = false
	}
	return &printer{out: out, err: err, useColors: colors}
}

func (p *printer) Println(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Success(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Warning(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Table renders rows under headers without borders.
func (p *printer) Table(headers []string, rows [][]string) {
	table := output.NewTable(p.out, headers...)
	table.AddRows(rows)
	table.Render()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
