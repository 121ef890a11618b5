package services

import "demand-studio/internal/models"

// ToChartPoints zips a forecast result into per-date chart points. A nil
// result yields an empty, non-nil slice.
func ToChartPoints(r *models.ForecastResult) []models.ChartPoint {
	if r == nil {
		return []models.ChartPoint{}
	}
	points := make([]models.ChartPoint, len(r.Dates))
	for i, date := range r.Dates {
		points[i] = models.ChartPoint{
			Date:     date,
			Forecast: r.Forecast[i],
			Lower:    r.Lower[i],
			Upper:    r.Upper[i],
		}
	}
	return points
}
