package telemetry

import "panorama-service/internal/models"

type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const (
	colorOutOfRange = "#FF1744"
	colorHigh       = "#FFB84D"
	colorNormal     = "#4CAF50"
)

// Classify rates an environment sensor. PM2.5 bands take precedence, then
// any reading outside its range, then the smoke and CO2 limits.
func Classify(r *models.EnvironmentReadings) Status {
	if r == nil {
		return StatusNormal
	}
	if r.PM25 != nil {
		if r.PM25.Value > 150.4 {
			return StatusCritical
		}
		if r.PM25.Value > 55.4 {
			return StatusWarning
		}
	}
	if outOfRange(r.Temperature) || outOfRange(r.Humidity) {
		return StatusCritical
	}
	if r.Smoke != nil && r.Smoke.Value > 50 {
		return StatusCritical
	}
	if r.CO2 != nil && r.CO2.Value > 1500 {
		return StatusCritical
	}
	return StatusNormal
}

func outOfRange(r *models.Reading) bool {
	if r == nil {
		return false
	}
	return (r.Min != nil && r.Value < *r.Min) || (r.Max != nil && r.Value > *r.Max)
}

// ReadingColor picks the badge color for a value in [min, max]: red outside,
// orange in the top 30%, green otherwise.
func ReadingColor(value, min, max float64) string {
	if value < min || value > max {
		return colorOutOfRange
	}
	if max > min && (value-min)/(max-min) > 0.7 {
		return colorHigh
	}
	return colorNormal
}
