package console

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"

	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

const topTargets = 3

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Printer выводит ход пакетного анализа и сводку в терминал
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) BatchStarted(total int, keywords []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s Found %d images to analyze\n", infoColor("[*]"), total)
	fmt.Fprintf(p.out, "%s Target keywords: %s\n", infoColor("[*]"), strings.Join(keywords, ", "))
}

func (p *Printer) ImageDone(index, total int, outcome entity.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := fmt.Sprintf("[%d/%d]", index, total)
	switch {
	case outcome.Failure != nil:
		f := outcome.Failure
		fmt.Fprintf(p.out, "%s %s %s: %s\n", errorColor(prefix), f.Filename, f.Kind, f.Message)
	case outcome.Record.HasTargets():
		r := outcome.Record
		fmt.Fprintf(p.out, "%s %s %s\n", alertColor(prefix), r.Filename,
			alertColor("targets: "+strings.Join(r.MatchedKeywords, ", ")))
	default:
		fmt.Fprintf(p.out, "%s %s %s\n", successColor(prefix), outcome.Record.Filename, outcome.Record.Caption)
	}
}

// Summary печатает итог запуска и результат сохранения
func (p *Printer) Summary(res *app.RunResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, s := res.Report.Metadata, res.Report.Summary

	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s Run %s\n", infoColor("[*]"), m.RunID)
	fmt.Fprintf(p.out, "    Images analyzed:    %d\n", m.TotalImages)
	fmt.Fprintf(p.out, "    Images with targets: %d\n", m.ImagesWithTargets)
	fmt.Fprintf(p.out, "    Failures:           %d\n", len(res.Report.Failures))
	fmt.Fprintf(p.out, "    Detection rate:     %.2f%%\n", s.DetectionRate)
	fmt.Fprintf(p.out, "    Avg confidence:     %.3f\n", s.AvgConfidence)

	targets := targetCounts(res.Report.Records)
	if top := topObjects(targets, topTargets); len(top) > 0 {
		fmt.Fprintf(p.out, "%s Most common targets:\n", infoColor("[*]"))
		for _, name := range top {
			fmt.Fprintf(p.out, "    %s: %d\n", name, targets[name])
		}
	}

	for _, sr := range res.Sinks {
		if sr.Err != nil {
			fmt.Fprintf(p.out, "%s %s: %v\n", warningColor("[!]"), sr.Destination, sr.Err)
			continue
		}
		fmt.Fprintf(p.out, "%s %s: %s\n", successColor("[+]"), sr.Destination, sr.Location)
	}
}

// Error печатает ошибку запуска
func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s: %v\n", errorColor("[-]"), entity.KindOf(err), err)
}

// targetCounts сколько изображений содержит каждое ключевое слово
func targetCounts(records []entity.AnalysisRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		for _, kw := range rec.MatchedKeywords {
			counts[kw]++
		}
	}
	return counts
}

// topObjects первые n объектов по убыванию числа, при равенстве по имени
func topObjects(counts map[string]int, n int) []string {
	names := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

var _ port.ProgressReporter = (*Printer)(nil)
