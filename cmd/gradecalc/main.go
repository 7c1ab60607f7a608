package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/grade-calculator-api/internal/dto"
	"github.com/noah-isme/grade-calculator-api/internal/models"
	"github.com/noah-isme/grade-calculator-api/internal/service"
	"github.com/noah-isme/grade-calculator-api/pkg/export"
)

type options struct {
	input      string
	weighted   bool
	onlyGraded bool
	both       bool
	pretty     bool
	format     string
	set        map[string]bool
}

func main() {
	logr, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	opts := parseFlags(os.Args[1:])
	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		logr.Error("grade calculation failed", zap.String("input", opts.input), zap.Error(err))
		os.Exit(1)
	}
}

func parseFlags(args []string) options {
	fs := flag.NewFlagSet("gradecalc", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.input, "input", "-", "Path to a calculation request JSON file, - for stdin")
	fs.BoolVar(&opts.weighted, "weighted", false, "Apply assignment group weights (overrides the document)")
	fs.BoolVar(&opts.onlyGraded, "only-graded", false, "Current grade: ignore unposted work (overrides the document)")
	fs.BoolVar(&opts.both, "final", false, "Print current and final grades together")
	fs.BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	fs.StringVar(&opts.format, "format", "json", "Output format: json, csv or pdf")
	_ = fs.Parse(args)

	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts
}

func run(opts options, stdin io.Reader, stdout io.Writer) error {
	req, err := readRequest(opts.input, stdin)
	if err != nil {
		return err
	}
	if opts.set["weighted"] {
		req.ApplyGroupWeights = opts.weighted
	}
	if opts.set["only-graded"] {
		req.OnlyGraded = opts.onlyGraded
	}
	if err := service.NewPayloadValidator().Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	calculator := service.NewGradeCalculator(service.CalculatorOptions{})
	var grades []models.CourseGrade
	if opts.both {
		current, final := calculator.CalculateCourseGrades(req.AssignmentGroups, req.WhatIfScores, req.ApplyGroupWeights)
		grades = []models.CourseGrade{current, final}
	} else {
		grades = []models.CourseGrade{calculator.CalculateBreakdown(req.AssignmentGroups, req.WhatIfScores, req.ApplyGroupWeights, req.OnlyGraded)}
	}

	switch opts.format {
	case "", "json":
		var out interface{} = grades[0]
		if opts.both {
			out = dto.CourseGradesResponse{Current: grades[0], Final: grades[1]}
		}
		enc := json.NewEncoder(stdout)
		if opts.pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(out)
	case "csv":
		return export.NewCSVExporter().Write(stdout, service.BreakdownDataset(grades[len(grades)-1]))
	case "pdf":
		data := service.BreakdownDataset(grades[len(grades)-1])
		if opts.both {
			data.Summary = append(data.Summary, fmt.Sprintf("Current grade: %.2f%%", grades[0].Percentage))
		}
		return export.NewPDFExporter().Write(stdout, data)
	default:
		return fmt.Errorf("unsupported format %q", opts.format)
	}
}

func readRequest(path string, stdin io.Reader) (dto.CalculateGradeRequest, error) {
	var req dto.CalculateGradeRequest
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decode input: %w", err)
	}
	return req, nil
}
