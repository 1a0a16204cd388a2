package reports

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
)

// bucketFor assigns an outstanding sale to exactly one age band. Day zero is
// current; day 31 falls in the 31-60 band.
func bucketFor(days int) AgingBucket {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// buildReceivablesAging groups unpaid sales by vehicle registration and age
// band. Bucket sums must add up to the grand total.
func buildReceivablesAging(quarryID int64, asOf time.Time, sales []operations.Sale) (ReceivablesAging, error) {
	report := ReceivablesAging{
		QuarryID: quarryID,
		AsOf:     asOf,
		Buckets:  make(map[AgingBucket]float64, len(agingBuckets)),
	}
	byVehicle := make(map[string]*AgingRow)
	for _, sale := range sales {
		outstanding := sale.Outstanding()
		if outstanding < tolerance {
			continue
		}
		days := int(asOf.Sub(sale.Date).Hours() / 24)
		bucket := bucketFor(days)
		row, ok := byVehicle[sale.VehicleReg]
		if !ok {
			row = &AgingRow{VehicleReg: sale.VehicleReg, Buckets: make(map[AgingBucket]float64, len(agingBuckets))}
			byVehicle[sale.VehicleReg] = row
		}
		row.Buckets[bucket] += outstanding
		row.Total += outstanding
		report.Buckets[bucket] += outstanding
		report.Total += outstanding
	}
	for _, row := range byVehicle {
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].VehicleReg < report.Rows[j].VehicleReg })

	var bucketSum float64
	for _, bucket := range agingBuckets {
		bucketSum += report.Buckets[bucket]
	}
	if math.Abs(bucketSum-report.Total) >= tolerance {
		return ReceivablesAging{}, fmt.Errorf("%w: aging buckets %.2f vs total %.2f", ErrReportInconsistent, bucketSum, report.Total)
	}
	return report, nil
}
