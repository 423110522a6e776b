package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fellowship/core/roster"
)

func TestDefaultReportFilter(t *testing.T) {
	now := time.Date(2024, time.March, 10, 18, 30, 0, 0, time.UTC)
	f := DefaultReportFilter(now)
	assert.Equal(t, "2024-02-09", f.StartDate)
	assert.Equal(t, "2024-03-10", f.EndDate)
	assert.Equal(t, roster.KindClass, f.Type)

	var empty ReportFilter
	empty.Normalize(now)
	assert.Equal(t, f, empty)
	assert.NoError(t, empty.Validate())
}

func TestReportFilter_Query(t *testing.T) {
	f := ReportFilter{Type: roster.KindGroup, ClassID: "c1", GroupID: "g1", StartDate: "2024-01-01", EndDate: "2024-01-31"}
	assert.Equal(t, map[string]string{"type": "group", "groupId": "g1", "startDate": "2024-01-01", "endDate": "2024-01-31"}, f.Query())

	f.Type = roster.KindClass
	assert.Equal(t, map[string]string{"type": "class", "classId": "c1", "startDate": "2024-01-01", "endDate": "2024-01-31"}, f.Query())

	f.Select("c2")
	assert.Equal(t, "c2", f.TargetID())
	assert.Empty(t, f.GroupID)
}

func TestReportFilter_Validate(t *testing.T) {
	f := ReportFilter{Type: roster.KindClass, StartDate: "2024-02-01", EndDate: "2024-01-01"}
	assert.Error(t, f.Validate())
	f.EndDate = "lol"
	assert.Error(t, f.Validate())
}

func TestRateTier(t *testing.T) {
	tests := []struct {
		rate float64
		want Tier
	}{
		{rate: 100, want: Favorable},
		{rate: 80, want: Favorable},
		{rate: 79.99, want: Caution},
		{rate: 79, want: Caution},
		{rate: 60, want: Caution},
		{rate: 59, want: Unfavorable},
		{rate: 0, want: Unfavorable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RateTier(tt.rate), "rate %v", tt.rate)
	}
}

func TestRate_UnmarshalJSON(t *testing.T) {
	var stats []ChildStat
	data := `[{"child": {"_id": "k1"}, "attendanceRate": 85.5}, {"child": "k2", "attendanceRate": "60.00"}, {"child": "k3", "attendanceRate": null}]`
	require.NoError(t, json.Unmarshal([]byte(data), &stats))
	assert.Equal(t, Rate(85.5), stats[0].AttendanceRate)
	assert.Equal(t, Caution, stats[1].AttendanceRate.Tier())
	assert.Equal(t, Rate(0), stats[2].AttendanceRate)
}
