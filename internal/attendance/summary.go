package attendance

import (
	"sort"
	"time"

	"staffsuite/internal/report"
)

// Count is one bucket of a clock-direction pivot.
type Count struct {
	Key   string `json:"key"`
	In    int    `json:"clock_in"`
	Out   int    `json:"clock_out"`
	Total int    `json:"total"`
}

// Summary holds the dashboard KPIs and pivots over a filtered record set.
type Summary struct {
	Total           int    `json:"total_records"`
	UniqueEmployees int    `json:"unique_employees"`
	Zones           int    `json:"zones"`
	FirstDate       string `json:"first_date,omitempty"`
	LastDate        string `json:"last_date,omitempty"`

	Daily     []Count `json:"daily"`
	Weekday   []Count `json:"weekday"`
	Hourly    []Count `json:"hourly"`
	Employees []Count `json:"employees"`

	// Presence is employee name -> date -> events that day.
	Presence map[string]map[string]int `json:"presence"`
	// RoleHourly is role -> 24 hourly event counts.
	RoleHourly map[string][24]int `json:"role_hourly"`
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// Summarize builds the dashboard view. Dates and hours are taken in loc.
func Summarize(recs []Record, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	sum := Summary{
		Total:      len(recs),
		Presence:   map[string]map[string]int{},
		RoleHourly: map[string][24]int{},
	}

	daily := map[string]*Count{}
	byDay := map[time.Weekday]*Count{}
	for _, d := range weekdays {
		byDay[d] = &Count{Key: d.String()}
	}
	hourly := make([]Count, 24)
	for h := range hourly {
		hourly[h].Key = time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15")
	}
	employees := map[string]*Count{}
	zones := map[string]bool{}

	for _, r := range recs {
		ts := r.Timestamp.In(loc)
		date := ts.Format(report.DateLayout)
		if sum.FirstDate == "" || date < sum.FirstDate {
			sum.FirstDate = date
		}
		if date > sum.LastDate {
			sum.LastDate = date
		}
		zones[r.Zone] = true

		if daily[date] == nil {
			daily[date] = &Count{Key: date}
		}
		if employees[r.Name] == nil {
			employees[r.Name] = &Count{Key: r.Name}
		}
		for _, c := range []*Count{daily[date], byDay[ts.Weekday()], &hourly[ts.Hour()], employees[r.Name]} {
			c.add(r.Direction)
		}

		if sum.Presence[r.Name] == nil {
			sum.Presence[r.Name] = map[string]int{}
		}
		sum.Presence[r.Name][date]++

		rh := sum.RoleHourly[r.Role]
		rh[ts.Hour()]++
		sum.RoleHourly[r.Role] = rh
	}

	sum.UniqueEmployees = len(employees)
	sum.Zones = len(zones)

	for _, c := range daily {
		sum.Daily = append(sum.Daily, *c)
	}
	sort.Slice(sum.Daily, func(i, j int) bool { return sum.Daily[i].Key < sum.Daily[j].Key })

	for _, d := range weekdays {
		sum.Weekday = append(sum.Weekday, *byDay[d])
	}
	sum.Hourly = hourly

	for _, c := range employees {
		sum.Employees = append(sum.Employees, *c)
	}
	sort.Slice(sum.Employees, func(i, j int) bool {
		a, b := sum.Employees[i], sum.Employees[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Key < b.Key
	})
	return sum
}

func (c *Count) add(direction string) {
	switch direction {
	case ClockIn:
		c.In++
	case ClockOut:
		c.Out++
	}
	c.Total++
}
