package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Hum-Bao/canvas-enable-totals/internal/scoring"
)

const (
	gradeTableSelector    = "#grades_summary"
	groupTotalSelector    = "tr.group_total"
	finalGradeRowSelector = "tr#submission_final-grade, tr.final_grade"
	titleSelector         = "th.title"
	scoreSelector         = ".score_holder .tooltip .grade"
	pointsSelector        = ".details .possible.points_possible"
	displaySelector       = "#student-grades-final"
)

const finalGradeRow = `<tr class="student_assignment hard_coded final_grade" id="submission_final-grade" data-muted="true" data-pending_quiz="false">
  <th class="title" scope="row">Total</th>
  <td class="due"></td>
  <td class="submitted"></td>
  <td class="status" scope="row"></td>
  <td class="assignment_score" title="">
    <div style="position: relative; height: 100%;" class="score_holder">
      <span class="assignment_presenter_for_submission" style="display: none;"></span>
      <span class="react_pill_container"></span>
      <span class="tooltip"><span class="grade"></span></span>
    </div>
  </td>
  <td class="details"><span class="possible points_possible" aria-label=""></span></td>
  <td></td>
</tr>`

// HTML parses a grades page, writes the totals into it and returns the new markup.
func HTML(html []byte, res *scoring.Result) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse grades page: %w", err)
	}

	Page(doc, res)

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize grades page: %w", err)
	}
	return []byte(out), nil
}

// Page rewrites doc in place: category total rows, the final grade row and the
// total display.
func Page(doc *goquery.Document, res *scoring.Result) {
	if res == nil {
		return
	}

	doc.Find(displaySelector).First().SetText(res.Display())

	table := doc.Find(gradeTableSelector).First()
	if table.Length() == 0 {
		return
	}

	categories := make(map[string]scoring.CategoryResult, len(res.Categories))
	for _, c := range res.Categories {
		categories[c.Name] = c
	}

	table.Find(groupTotalSelector).Each(func(_ int, row *goquery.Selection) {
		title := row.Find(titleSelector).First()
		if title.Length() == 0 {
			return
		}
		c, ok := categories[strings.TrimSpace(title.Text())]
		if !ok {
			return
		}
		fillRow(row, c.Percent, c.Received, c.Possible)
	})

	row := table.Find(finalGradeRowSelector).First()
	if row.Length() == 0 {
		tbody := table.Find("tbody").First()
		if tbody.Length() == 0 {
			return
		}
		tbody.AppendHtml(finalGradeRow)
		row = table.Find(finalGradeRowSelector).First()
	}

	row.Find(scoreSelector).First().SetText(scoring.FormatPercent(res.TotalPercent()) + "%")
	if res.TotalPossible > 0 {
		setPoints(row, res.TotalReceived, res.TotalPossible)
	}
}

func fillRow(row *goquery.Selection, percent, received, possible float64) {
	row.Find(scoreSelector).First().SetText(scoring.FormatPercent(percent) + "%")
	setPoints(row, received, possible)
}

func setPoints(row *goquery.Selection, received, possible float64) {
	el := row.Find(pointsSelector).First()
	if el.Length() == 0 {
		return
	}
	r, p := points(received), points(possible)
	el.SetText(r + " / " + p)
	el.SetAttr("aria-label", r+" out of "+p+" points")
}

func points(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
