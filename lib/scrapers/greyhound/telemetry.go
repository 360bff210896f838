package greyhound

import (
	"greyhound-backend/lib/restyutil"
	"greyhound-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("greyhound.lib.scrapers.greyhound")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
