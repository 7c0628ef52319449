package kinds

import (
	"fmt"

	"github.com/sguter90/sensorcharts/pkg/models"
)

// Y axes used by dual-axis charts
const (
	AxisLeft  = "y-left"
	AxisRight = "y-right"
)

const (
	percentageBorderColor     = "rgb(34, 197, 94)"
	percentageBackgroundColor = "rgba(34, 197, 94, 0.1)"
)

func newDataset(label, color string, points []models.Point) *models.Dataset {
	return &models.Dataset{
		Label:            label,
		Data:             points,
		BorderColor:      color,
		BackgroundColor:  color,
		BorderWidth:      2,
		Tension:          0.1,
		PointRadius:      1,
		PointHoverRadius: 4,
		Fill:             false,
	}
}

// SingleSeries renders one dataset per slot
func SingleSeries(cfg Config, slot int, points []models.Point) []*models.Dataset {
	return []*models.Dataset{newDataset(cfg.SeriesLabel(slot), cfg.Color(slot), points)}
}

// DualAxisPercentage renders the raw voltage on the left axis and the derived
// charge percentage on the right axis
func DualAxisPercentage(cfg Config, slot int, points []models.Point) []*models.Dataset {
	voltage := newDataset(cfg.SeriesLabel(slot), cfg.Color(slot), points)
	voltage.YAxisID = AxisLeft

	percentages := make([]models.Point, len(points))
	for i, p := range points {
		percentages[i] = models.Point{X: p.X, Y: float64(VoltageToPercentage(p.Y))}
	}

	percentage := newDataset(fmt.Sprintf("Porcentaje ch%d (%%)", slot), percentageBorderColor, percentages)
	percentage.BackgroundColor = percentageBackgroundColor
	percentage.YAxisID = AxisRight

	return []*models.Dataset{voltage, percentage}
}
