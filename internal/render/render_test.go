package render

import (
	"bytes"
	"os"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hum-Bao/canvas-enable-totals/internal/scoring"
)

func sampleResult() *scoring.Result {
	hw, exams := 40.0, 60.0
	return &scoring.Result{
		Mode: scoring.ModeWeighted,
		Categories: []scoring.CategoryResult{
			{Name: "Exams", Received: 175, Possible: 200, Percent: 87.5, Weight: &exams},
			{Name: "Homework", Received: 23, Possible: 30, Percent: 76.66666666666667, Weight: &hw},
		},
		FinalPercent:  83.16666666666667,
		TotalReceived: 198,
		TotalPossible: 230,
		WeightTotal:   100,
		Balanced:      true,
	}
}

func renderFixture(t *testing.T, res *scoring.Result) *goquery.Document {
	t.Helper()
	html, err := os.ReadFile("../extract/testdata/grades.html")
	require.NoError(t, err)

	out, err := HTML(html, res)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	require.NoError(t, err)
	return doc
}

func TestCategoryRows(t *testing.T) {
	doc := renderFixture(t, sampleResult())

	homework := doc.Find("#submission_group-1")
	assert.Equal(t, "76.67%", homework.Find(scoreSelector).Text())
	points := homework.Find(pointsSelector)
	assert.Equal(t, "23.00 / 30.00", points.Text())
	assert.Equal(t, "23.00 out of 30.00 points", points.AttrOr("aria-label", ""))

	exams := doc.Find("#submission_group-2")
	assert.Equal(t, "87.50%", exams.Find(scoreSelector).Text())
	assert.Equal(t, "175.00 / 200.00", exams.Find(pointsSelector).Text())

	// no result for this category
	labs := doc.Find("#submission_group-3")
	assert.Equal(t, "N/A", labs.Find(scoreSelector).Text())
	assert.Empty(t, labs.Find(pointsSelector).Text())
}

func TestFinalGradeRow(t *testing.T) {
	doc := renderFixture(t, sampleResult())

	rows := doc.Find("#grades_summary " + finalGradeRowSelector)
	require.Equal(t, 1, rows.Length())
	assert.True(t, rows.HasClass("hard_coded"))
	assert.Equal(t, "Total", rows.Find("th.title").Text())
	assert.Equal(t, "86.09%", rows.Find(scoreSelector).Text())
	assert.Equal(t, "198.00 / 230.00", rows.Find(pointsSelector).Text())
}

func TestRenderIsIdempotent(t *testing.T) {
	html, err := os.ReadFile("../extract/testdata/grades.html")
	require.NoError(t, err)

	once, err := HTML(html, sampleResult())
	require.NoError(t, err)
	twice, err := HTML(once, sampleResult())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(twice))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(finalGradeRowSelector).Length())
}

func TestDisplay(t *testing.T) {
	t.Run("without gpa", func(t *testing.T) {
		doc := renderFixture(t, sampleResult())
		assert.Equal(t, "Total: 83.17%", doc.Find(displaySelector).Text())
	})

	t.Run("with gpa", func(t *testing.T) {
		res := sampleResult()
		gpa := 3.0
		res.GPA = &gpa
		doc := renderFixture(t, res)
		assert.Equal(t, "Total: 83.17% (3.00)", doc.Find(displaySelector).Text())
	})
}

func TestNoPointsPossible(t *testing.T) {
	doc := renderFixture(t, &scoring.Result{Mode: scoring.ModeUnweighted})

	row := doc.Find(finalGradeRowSelector)
	assert.Equal(t, "0.00%", row.Find(scoreSelector).Text())
	assert.Empty(t, row.Find(pointsSelector).Text())
	assert.Equal(t, "Total: 0.00%", doc.Find(displaySelector).Text())
}

func TestPageWithoutGradeTable(t *testing.T) {
	out, err := HTML([]byte(`<html><body><div id="student-grades-final"></div></body></html>`), sampleResult())
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total: 83.17%")
	assert.NotContains(t, string(out), "submission_final-grade")
}
