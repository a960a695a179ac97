package fetch

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultBaseURL = "https://noaa-hrrr-bdp-pds.s3.amazonaws.com"

// PublishLag is how long after the cycle hour the analysis (f00) of an HRRR
// run normally appears in the archive.
const PublishLag = 50 * time.Minute

var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by LatestRun. Pass nil to reset.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Run identifies one forecast file: a model cycle, a product and a forecast
// hour.
type Run struct {
	Model   string
	Product string
	Time    time.Time
	Fxx     int
}

// NewRun returns the HRRR run for date at hour with product prs and fxx=0.
func NewRun(date time.Time, hour int) Run {
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.UTC)
	return Run{Model: "hrrr", Product: "prs", Time: t}
}

// LatestRun returns the most recent cycle whose analysis should be
// published.
func LatestRun() Run {
	t := clock.Now().UTC().Add(-PublishLag).Truncate(time.Hour)
	return NewRun(t, t.Hour())
}

// URL returns the archive location of the run's GRIB2 file under base.
func (r Run) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	model := r.Model
	if model == "" {
		model = "hrrr"
	}
	product := r.Product
	if product == "" {
		product = "prs"
	}
	t := r.Time.UTC()
	return fmt.Sprintf("%s/%s.%s/conus/%s.t%02dz.wrf%sf%02d.grib2",
		base, model, t.Format("20060102"), model, t.Hour(), product, r.Fxx)
}

func (r Run) String() string {
	return fmt.Sprintf("%s %s %s f%02d", r.Model, r.Product, r.Time.UTC().Format("2006-01-02 15Z"), r.Fxx)
}
