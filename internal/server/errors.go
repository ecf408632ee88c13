package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Agrim06/TeraFarm/internal/observability/logger"
	predictiondomain "github.com/Agrim06/TeraFarm/internal/prediction/domain"
	telemetrydomain "github.com/Agrim06/TeraFarm/internal/telemetry/domain"
)

// noActiveMessage is the exact wire phrase polling devices match on. It is
// not an error condition: it ships with HTTP 200 and success:false so
// clients can tell "nothing for you" apart from a fault.
const noActiveMessage = "No active prediction"

// ErrMalformedBody reports a request body that could not be parsed as JSON.
var ErrMalformedBody = errors.New("malformed_body")

var validationMessages = map[error]string{
	ErrMalformedBody:                      "Malformed JSON body",
	telemetrydomain.ErrMissingDeviceID:    "Missing deviceId",
	telemetrydomain.ErrInvalidMeasurement: "Measurements must be finite numbers",
	telemetrydomain.ErrInvalidTimestamp:   "Unparseable timestamp",
	predictiondomain.ErrMissingDeviceID:   "Missing deviceId",
	predictiondomain.ErrInvalidWaterMM:    "waterMM must be a finite non-negative number",
	predictiondomain.ErrInvalidPumpTime:   "pumpTimeSec must be a finite non-negative number",
}

// AbortWithError maps a service error onto the JSON envelope: validation
// errors become 400s with a stable message, anything else is a 500.
func AbortWithError(c *gin.Context, err error) {
	for sentinel, message := range validationMessages {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   message,
			})
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
