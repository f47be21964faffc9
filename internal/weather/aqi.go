package weather

import "panorama-service/internal/models"

type band struct {
	upper float64
	aqi   models.AQI
}

// US EPA PM2.5 breakpoints in µg/m³.
var bands = []band{
	{12, models.AQI{Level: "Good", Color: "#4CAF50"}},
	{35.4, models.AQI{Level: "Moderate", Color: "#FFC107"}},
	{55.4, models.AQI{Level: "Unhealthy for Sensitive Groups", Color: "#FF9800"}},
	{150.4, models.AQI{Level: "Unhealthy", Color: "#F44336"}},
	{250.4, models.AQI{Level: "Very Unhealthy", Color: "#C62828"}},
}

var hazardous = models.AQI{Level: "Hazardous", Color: "#6D1B1B"}

// ClassifyPM25 maps a PM2.5 concentration to its AQI band.
func ClassifyPM25(pm25 float64) models.AQI {
	for _, b := range bands {
		if pm25 <= b.upper {
			return b.aqi
		}
	}
	return hazardous
}
