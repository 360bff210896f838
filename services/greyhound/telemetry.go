package greyhoundd

import (
	"greyhound-backend/lib/telemetry"

	"go.opentelemetry.io/otel"
)

var tracer = telemetry.Tracer("greyhound.services.greyhound")
var meter = otel.Meter("greyhound.services.greyhound")
