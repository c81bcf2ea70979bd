package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

const weightTableSelector = "table.summary"

var (
	weightPercent = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	courseIDPath  = regexp.MustCompile(`/courses/(\d+)`)
)

func extractDefaultWeights(doc *goquery.Document) models.WeightMap {
	weights := make(models.WeightMap)

	table := doc.Find(weightTableSelector).First()
	if table.Length() == 0 {
		return weights
	}

	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		categoryEl := tr.Find("th[scope='row']").First()
		weightEl := tr.Find("td").First()
		if categoryEl.Length() == 0 || weightEl.Length() == 0 {
			return
		}

		category := strings.TrimSpace(categoryEl.Text())
		// the summary's own footer row
		if strings.EqualFold(category, "total") {
			return
		}

		m := weightPercent.FindStringSubmatch(strings.TrimSpace(weightEl.Text()))
		if m == nil {
			return
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			weights[category] = v
		}
	})

	return weights
}

// CourseIDFromPath pulls the numeric course id out of a Canvas URL path.
func CourseIDFromPath(path string) (string, bool) {
	m := courseIDPath.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func courseIDFromLinks(doc *goquery.Document) string {
	var id string
	doc.Find("a[href*='/courses/']").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if found, ok := CourseIDFromPath(a.AttrOr("href", "")); ok {
			id = found
			return false
		}
		return true
	})
	return id
}
