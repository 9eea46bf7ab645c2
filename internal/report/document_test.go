package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjudge-oj/useradmin/types"
)

var generatedAt = time.Date(2024, 2, 3, 16, 5, 9, 0, time.UTC)

func TestBuildReport(t *testing.T) {
	doc := BuildReport(sampleUsers(), generatedAt)

	assert.Equal(t, "Gallery User Report", doc.Title)
	assert.Equal(t, "Generated: 2/3/2024 4:05:09 PM", doc.Generated)
	assert.Equal(t, []string{"#", "Name", "Email", "Country", "Phone"}, doc.Columns)
	assert.Equal(t, [][]string{
		{"1", "Bob", "b@x.com", "N/A", "N/A"},
		{"2", "Alice", "a@x.com", "Sri Lanka", "0771"},
		{"3", "Carol", "carol@gallery.io", "India", "N/A"},
	}, doc.Rows)
}

func TestBuildReportNumbersRowsRegardlessOfInputOrder(t *testing.T) {
	users := SortByCreatedAt(sampleUsers(), Descending)
	doc := BuildReport(Filter(users, "x.com"), generatedAt)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "1", doc.Rows[0][0])
	assert.Equal(t, "Bob", doc.Rows[0][1])
	assert.Equal(t, "2", doc.Rows[1][0])
	assert.Equal(t, "Alice", doc.Rows[1][1])
}

func TestBuildReportEmpty(t *testing.T) {
	doc := BuildReport(nil, generatedAt)

	assert.NotNil(t, doc.Rows)
	assert.Empty(t, doc.Rows)
	assert.Len(t, doc.Columns, 5)
}

func TestFormatGenerated(t *testing.T) {
	assert.Equal(t, "12/31/2023 12:00:00 AM", FormatGenerated(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "7/4/2024 9:30:15 AM", FormatGenerated(time.Date(2024, 7, 4, 9, 30, 15, 0, time.UTC)))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, BuildReport(sampleUsers(), generatedAt)))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, BuildReport(nil, generatedAt)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFSpansPages(t *testing.T) {
	users := make([]types.User, 0, 120)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		users = append(users, types.User{
			ID:        fmt.Sprint(i),
			Name:      "User " + fmt.Sprint(i),
			Email:     strings.Repeat("very-long-address", 3) + "@example.com",
			CreatedAt: types.Timestamp{Time: start.Add(time.Duration(i) * time.Hour)},
		})
	}

	var single, multi bytes.Buffer
	require.NoError(t, WritePDF(&single, BuildReport(users[:1], generatedAt)))
	require.NoError(t, WritePDF(&multi, BuildReport(users, generatedAt)))

	assert.Equal(t, 1, strings.Count(single.String(), "/Type /Page\n"))
	assert.Greater(t, strings.Count(multi.String(), "/Type /Page\n"), 1)
}

func TestWritePDFRejectsMismatchedStyle(t *testing.T) {
	doc := BuildReport(sampleUsers(), generatedAt)
	doc.Style.ColumnWidths = []float64{10, 10}

	err := WritePDF(&bytes.Buffer{}, doc)
	assert.Error(t, err)
}

func TestReplaceUnencodable(t *testing.T) {
	assert.Equal(t, "Zoë Müller – “café” €5", replaceUnencodable("Zoë Müller – “café” €5"))
	assert.Equal(t, "??? / ?? / Ana", replaceUnencodable("Ζωή / 日本 / Ana"))
}

func TestWritePDFNonLatinText(t *testing.T) {
	doc := BuildReport([]types.User{
		{ID: "1", Name: "Дмитрий", Email: "d@example.com", Country: "Україна", CreatedAt: types.MustTimestamp("2024-01-01")},
	}, generatedAt)

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
