package dashboard

import "github.com/kjstillabower/crop-advisory-service/internal/models"

// scripted is a canned toast. None of them depend on user input.
type scripted struct {
	title       string
	description string
	severity    models.Severity
}

var (
	imageReceived = scripted{
		title:       "Image Uploaded",
		description: "Analyzing pest/disease... Please wait.",
		severity:    models.SeverityDefault,
	}
	analysisComplete = scripted{
		title:       "Analysis Complete",
		description: "Detected: Leaf Blight - Apply Copper Sulfate spray",
		severity:    models.SeverityDefault,
	}
	advisorySent = scripted{
		title:       "Advisory Sent",
		description: "AI is processing your query...",
		severity:    models.SeverityDefault,
	}
	smartAdvisory = scripted{
		title:       "Smart Advisory",
		description: "Based on your location and crop, consider planting tomatoes next season.",
		severity:    models.SeverityDefault,
	}
)

// Notification phases, used as a metric label.
const (
	phaseImmediate = "immediate"
	phaseDelayed   = "delayed"
)
