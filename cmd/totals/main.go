package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/Hum-Bao/canvas-enable-totals/internal/app"
	"github.com/Hum-Bao/canvas-enable-totals/internal/extract"
	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
	"github.com/Hum-Bao/canvas-enable-totals/internal/render"
	"github.com/Hum-Bao/canvas-enable-totals/internal/scoring"
)

type options struct {
	pagePath   string
	configPath string
	course     string
	weights    string
	policies   string
	gpaScale   string
	renderPath string
	save       bool
	keepZero   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.pagePath, "page", "", "Saved Canvas grades page (HTML)")
	flag.StringVar(&opts.configPath, "config", "", "Config file; enables stored course settings")
	flag.StringVar(&opts.course, "course", "", "Course id (defaults to the one linked from the page)")
	flag.StringVar(&opts.weights, "weights", "", `Custom weights as JSON, e.g. {"Homework":40,"Exams":60}`)
	flag.StringVar(&opts.policies, "policies", "", `Category policies as JSON, e.g. {"Homework":{"drop_lowest":1}}`)
	flag.StringVar(&opts.gpaScale, "gpa-scale", "", `GPA scale as JSON, e.g. [{"min_percent":90,"max_percent":100,"gpa_value":4}]`)
	flag.StringVar(&opts.renderPath, "render", "", "Write the page with totals filled in to this file")
	flag.BoolVar(&opts.save, "save", false, "Persist the flag settings for the course (needs -config)")
	flag.BoolVar(&opts.keepZero, "keep-zero-weight", false, "Count categories whose weight is 0")
	flag.Parse()

	if opts.pagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	if err := run(context.Background(), opts); err != nil {
		logger.Error.Fatalf("%v", err)
	}
}

func run(ctx context.Context, opts options) error {
	html, err := os.ReadFile(opts.pagePath)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	page, err := extract.ParsePage(html)
	if err != nil {
		return err
	}
	if !page.HasGradeTable() {
		color.Yellow("No grades table found in %s", opts.pagePath)
	}

	course := opts.course
	if course == "" {
		course = page.CourseID()
	}
	if course == "" {
		course = "local"
	}

	grader := scoring.NewGrader(scoring.DefaultWeightTolerance)
	skipZeroWeight := !opts.keepZero
	settings := models.DefaultCourseSettings(course)

	var service *app.Service
	if opts.configPath != "" {
		service, err = app.NewService(opts.configPath)
		if err != nil {
			return err
		}
		defer service.Close()

		grader = service.Grader
		skipZeroWeight = service.Config.Extract.SkipZeroWeight && !opts.keepZero
		if settings, err = service.LoadSettings(ctx, course); err != nil {
			logger.Error.Printf("Using default settings: %v", err)
		}
	}

	if err := applyFlags(settings, opts); err != nil {
		return err
	}

	if opts.save {
		if service == nil {
			return fmt.Errorf("-save needs -config")
		}
		if err := service.SaveSettings(ctx, settings); err != nil {
			return err
		}
		color.Green("Saved settings for course %s", course)
	}

	weights := settings.EffectiveWeights(page.DefaultWeights())
	records := page.Assignments(weights, skipZeroWeight)
	res := grader.Grade(records, weights, settings.EffectivePolicies(), settings.EffectiveScale())

	printResult(course, res)

	if opts.renderPath != "" {
		out, err := render.HTML(html, res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.renderPath, out, 0o644); err != nil {
			return fmt.Errorf("failed to write rendered page: %w", err)
		}
		color.Green("Wrote %s", opts.renderPath)
	}

	return nil
}

// applyFlags turns on every feature given on the command line.
func applyFlags(settings *models.CourseSettings, opts options) error {
	if opts.weights != "" {
		var weights models.WeightMap
		if err := json.Unmarshal([]byte(opts.weights), &weights); err != nil {
			return fmt.Errorf("invalid -weights: %w", err)
		}
		settings.WeightsEnabled = true
		settings.Weights = weights
	}
	if opts.policies != "" {
		var policies models.PolicyMap
		if err := json.Unmarshal([]byte(opts.policies), &policies); err != nil {
			return fmt.Errorf("invalid -policies: %w", err)
		}
		settings.PoliciesEnabled = true
		settings.Policies = policies
	}
	if opts.gpaScale != "" {
		var scale models.GPAScale
		if err := json.Unmarshal([]byte(opts.gpaScale), &scale); err != nil {
			return fmt.Errorf("invalid -gpa-scale: %w", err)
		}
		settings.GPAEnabled = true
		settings.GPAScale = scale.Sanitized()
	}
	settings.Policies = settings.Policies.Active()
	return settings.Validate()
}

func printResult(course string, res *scoring.Result) {
	color.Cyan("\n=== Course %s (%s) ===", course, res.Mode)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Category", "Weight", "Received", "Possible", "Percent"})
	for _, c := range res.Categories {
		weight := "-"
		if c.Weight != nil {
			weight = scoring.FormatPercent(*c.Weight) + "%"
		}
		table.Append([]string{
			c.Name,
			weight,
			scoring.FormatPercent(c.Received),
			scoring.FormatPercent(c.Possible),
			scoring.FormatPercent(c.Percent) + "%",
		})
	}
	table.SetFooter([]string{
		"Points",
		"",
		scoring.FormatPercent(res.TotalReceived),
		scoring.FormatPercent(res.TotalPossible),
		scoring.FormatPercent(res.TotalPercent()) + "%",
	})
	table.Render()

	if !res.Balanced {
		color.Yellow("Weights add up to %s%%, not 100%%", scoring.FormatPercent(res.WeightTotal))
	}
	color.New(color.FgGreen, color.Bold).Println(res.Display())
}
