package engine

import (
	"fmt"
	"strings"
	"time"
)

// Participant is the operator-entered identification of a session.
type Participant struct {
	Initials  string `toml:"initials"`
	ID        string `toml:"id"`
	Condition string `toml:"condition"`
	TimePoint string `toml:"time_point"`
	Cohort    string `toml:"cohort"`
	Location  string `toml:"location"`
}

// Locations are the recording sites.
var Locations = []string{"KE", "BA"}

func (p Participant) Validate() error {
	fields := []struct{ name, val string }{
		{"initials", p.Initials},
		{"id", p.ID},
		{"condition", p.Condition},
		{"time_point", p.TimePoint},
		{"cohort", p.Cohort},
		{"location", p.Location},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.val) == "" {
			return configErr(f.name, fmt.Errorf("%w: field is not filled", ErrInvalidConfig))
		}
	}
	return nil
}

// Label is the participant identifier stored in every trial row.
func (p Participant) Label() string {
	return p.Initials + "_" + p.ID
}

// DataFileName names the trial data file of a session.
func (p Participant) DataFileName(visit int, now time.Time) string {
	return fmt.Sprintf("%s %s %s %s C%s-L%s-D%d %s.csv",
		p.Initials, p.ID, p.Condition, p.TimePoint, p.Cohort, p.Location, visit,
		now.Format("02-01-2006 15-04-05"))
}
