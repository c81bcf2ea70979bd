package extract

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

const (
	gradeTableSelector     = "#grades_summary"
	assignmentRowSelector  = "tbody tr"
	maxPointsSelector      = "td:nth-of-type(4) > div > span:nth-child(3) > span:nth-child(2)"
	categorySelector       = "th .context"
	pointsReceivedSelector = "td:nth-of-type(4) > div > span:nth-child(3) > span.grade"
)

var (
	leadingFloat   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	maxPointsSlash = regexp.MustCompile(`^/\s*`)
)

// Row is one graded assignment as it appears in the grades table.
type Row struct {
	Category       string
	PointsReceived float64
	MaxPoints      float64
}

// Page is the immutable result of scraping a grades page. It is safe to share.
type Page struct {
	rows           []Row
	defaultWeights models.WeightMap
	hasGradeTable  bool
	courseID       string
}

func ParsePage(html []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse grades page: %w", err)
	}
	return FromDocument(doc), nil
}

func FromDocument(doc *goquery.Document) *Page {
	page := &Page{
		defaultWeights: extractDefaultWeights(doc),
		courseID:       courseIDFromLinks(doc),
	}

	table := doc.Find(gradeTableSelector).First()
	if table.Length() == 0 {
		return page
	}
	page.hasGradeTable = true

	table.Find(assignmentRowSelector).Each(func(_ int, tr *goquery.Selection) {
		if row, ok := parseRow(tr); ok {
			page.rows = append(page.rows, row)
		}
	})
	return page
}

func (p *Page) HasGradeTable() bool {
	return p.hasGradeTable
}

// CourseID is the course the page links to, or "" when it has no course links.
func (p *Page) CourseID() string {
	return p.courseID
}

func (p *Page) Rows() []Row {
	return append([]Row(nil), p.rows...)
}

// DefaultWeights returns the course's own group weights. Empty means unweighted.
func (p *Page) DefaultWeights() models.WeightMap {
	weights := make(models.WeightMap, len(p.defaultWeights))
	for k, v := range p.defaultWeights {
		weights[k] = v
	}
	return weights
}

// Assignments groups rows by category. With skipZeroWeight, categories whose
// weight in weights is exactly 0 are left out.
func (p *Page) Assignments(weights models.WeightMap, skipZeroWeight bool) models.RecordsByCategory {
	byCategory := make(models.RecordsByCategory)
	for _, row := range p.rows {
		if skipZeroWeight {
			if w, ok := weights[row.Category]; ok && w == 0 {
				continue
			}
		}
		byCategory.Add(row.Category, models.AssignmentRecord{
			PointsReceived: row.PointsReceived,
			MaxPoints:      row.MaxPoints,
		})
	}
	return byCategory
}

func parseRow(tr *goquery.Selection) (Row, bool) {
	maxEl := tr.Find(maxPointsSelector).First()
	categoryEl := tr.Find(categorySelector).First()
	receivedEl := tr.Find(pointsReceivedSelector).First()
	if maxEl.Length() == 0 || categoryEl.Length() == 0 || receivedEl.Length() == 0 {
		return Row{}, false
	}
	category := strings.TrimSpace(categoryEl.Text())
	if category == "" {
		return Row{}, false
	}

	maxText := strings.TrimSpace(maxPointsSlash.ReplaceAllString(strings.TrimSpace(maxEl.Text()), ""))
	maxPoints, ok := parseFloat(maxText)
	if !ok || maxPoints == 0 {
		return Row{}, false
	}

	last := receivedEl.Contents().Last()
	if last.Length() == 0 {
		return Row{}, false
	}
	receivedText := strings.TrimSpace(last.Text())
	// ungraded
	if strings.Contains(receivedText, "-") {
		return Row{}, false
	}
	received, ok := parseFloat(receivedText)
	if !ok {
		return Row{}, false
	}

	return Row{
		Category:       category,
		PointsReceived: received,
		MaxPoints:      maxPoints,
	}, true
}

// parseFloat reads the leading number of s, ignoring trailing text like "pts".
func parseFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
