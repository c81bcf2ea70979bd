package extract

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	html, err := os.ReadFile("testdata/grades.html")
	require.NoError(t, err)
	return html
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(loadFixture(t))
	require.NoError(t, err)
	require.True(t, page.HasGradeTable())

	// ungraded and zero max point rows are dropped
	assert.Equal(t, []Row{
		{Category: "Homework", PointsReceived: 8, MaxPoints: 10},
		{Category: "Homework", PointsReceived: 10, MaxPoints: 10},
		{Category: "Homework", PointsReceived: 5, MaxPoints: 10},
		{Category: "Exams", PointsReceived: 85, MaxPoints: 100},
		{Category: "Exams", PointsReceived: 90, MaxPoints: 100},
		{Category: "Participation", PointsReceived: 5, MaxPoints: 5},
	}, page.Rows())
}

func TestDefaultWeights(t *testing.T) {
	page, err := ParsePage(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, models.WeightMap{
		"Homework":      40,
		"Exams":         60,
		"Participation": 0,
	}, page.DefaultWeights())
}

func TestAssignments(t *testing.T) {
	page, err := ParsePage(loadFixture(t))
	require.NoError(t, err)

	t.Run("zero weight categories skipped", func(t *testing.T) {
		got := page.Assignments(page.DefaultWeights(), true)
		assert.Equal(t, []string{"Exams", "Homework"}, got.Categories())
		assert.Len(t, got["Homework"], 3)
	})

	t.Run("zero weight kept when skipping disabled", func(t *testing.T) {
		got := page.Assignments(page.DefaultWeights(), false)
		assert.Equal(t, []string{"Exams", "Homework", "Participation"}, got.Categories())
	})

	t.Run("unweighted keeps everything", func(t *testing.T) {
		got := page.Assignments(nil, true)
		assert.Len(t, got, 3)
	})

	t.Run("table order within category", func(t *testing.T) {
		got := page.Assignments(nil, true)
		assert.Equal(t, []models.AssignmentRecord{
			{PointsReceived: 85, MaxPoints: 100},
			{PointsReceived: 90, MaxPoints: 100},
		}, got["Exams"])
	})
}

func TestPageWithoutTables(t *testing.T) {
	page, err := ParsePage([]byte(`<html><body><p>Nothing here</p></body></html>`))
	require.NoError(t, err)

	assert.False(t, page.HasGradeTable())
	assert.Empty(t, page.Rows())
	assert.Empty(t, page.DefaultWeights())
	assert.Empty(t, page.Assignments(nil, true))
}

func assignmentRow(category, received, max string) string {
	return fmt.Sprintf(`<tr class="student_assignment">
		<th class="title" scope="row"><a href="#">A</a><div class="context">%s</div></th>
		<td class="due"></td><td class="submitted"></td><td class="status"></td>
		<td class="assignment_score"><div class="score_holder"><span></span><span></span><span class="tooltip"><span class="grade">%s</span><span>/ %s</span></span></div></td>
	</tr>`, category, received, max)
}

func TestPageSkipsRowsWithoutCategory(t *testing.T) {
	html := `<html><body><table id="grades_summary"><tbody>` +
		assignmentRow("Homework", "7", "10") +
		assignmentRow("   ", "3", "10") +
		assignmentRow("", "4", "10") +
		`</tbody></table></body></html>`

	page, err := ParsePage([]byte(html))
	require.NoError(t, err)

	assert.Equal(t, []Row{{Category: "Homework", PointsReceived: 7, MaxPoints: 10}}, page.Rows())

	records := page.Assignments(nil, true)
	assert.NotContains(t, records, "")
	assert.Equal(t, []models.AssignmentRecord{{PointsReceived: 7, MaxPoints: 10}}, records["Homework"])
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{" 9.5 ", 9.5, true},
		{"12pts", 12, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"1e999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCourseIDFromPath(t *testing.T) {
	id, ok := CourseIDFromPath("/courses/12345/grades")
	assert.True(t, ok)
	assert.Equal(t, "12345", id)

	_, ok = CourseIDFromPath("/profile/settings")
	assert.False(t, ok)
}

func TestPageCourseID(t *testing.T) {
	page, err := ParsePage(loadFixture(t))
	require.NoError(t, err)
	assert.Equal(t, "12345", page.CourseID())

	page, err = ParsePage([]byte(`<a href="/profile">me</a>`))
	require.NoError(t, err)
	assert.Empty(t, page.CourseID())
}
