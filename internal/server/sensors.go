package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	telemetrydomain "github.com/Agrim06/TeraFarm/internal/telemetry/domain"
)

// knownReadingFields are the schema fields peeled off the ingest body;
// everything else survives in the reading's Extra map.
var knownReadingFields = map[string]struct{}{
	"deviceId":    {},
	"temperature": {},
	"humidity":    {},
	"moisture":    {},
	"timestamp":   {},
}

// IngestReading accepts one telemetry submission. The body schema is
// deliberately permissive: only deviceId is required, measurements may be
// absent, and unknown fields are stored rather than rejected.
func (s *Server) IngestReading(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrMalformedBody)
		return
	}

	req := telemetrydomain.IngestRequest{}

	if raw, ok := body["deviceId"]; ok {
		if id, ok := raw.(string); ok {
			req.DeviceID = strings.TrimSpace(id)
		}
	}

	var err error
	if req.Temperature, err = optionalNumber(body, "temperature"); err != nil {
		AbortWithError(c, err)
		return
	}
	if req.Humidity, err = optionalNumber(body, "humidity"); err != nil {
		AbortWithError(c, err)
		return
	}
	if req.Moisture, err = optionalNumber(body, "moisture"); err != nil {
		AbortWithError(c, err)
		return
	}

	if raw, ok := body["timestamp"]; ok && raw != nil {
		ts, err := telemetrydomain.ParseTimestamp(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Timestamp = &ts
	}

	for key, value := range body {
		if _, known := knownReadingFields[key]; known {
			continue
		}
		if req.Extra == nil {
			req.Extra = map[string]any{}
		}
		req.Extra[key] = value
	}

	if _, err := s.telemetrySvc.Ingest(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// LatestReading returns the newest reading, optionally scoped to one
// device. An empty store is a success with null data, not an error.
func (s *Server) LatestReading(c *gin.Context) {
	reading, err := s.telemetrySvc.Latest(c.Request.Context(), c.Query("deviceId"))
	if err != nil {
		if errors.Is(err, telemetrydomain.ErrNoReadings) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": reading})
}

// ReadingHistory returns readings newest-first. The limit parameter is
// clamped server-side; junk values fall back to the default.
func (s *Server) ReadingHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	readings, err := s.telemetrySvc.History(c.Request.Context(), telemetrydomain.HistoryRequest{
		DeviceID: c.Query("deviceId"),
		Limit:    limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if readings == nil {
		readings = []telemetrydomain.SensorReading{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": readings})
}

func optionalNumber(body map[string]any, key string) (*float64, error) {
	raw, ok := body[key]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(float64)
	if !ok {
		return nil, telemetrydomain.ErrInvalidMeasurement
	}
	return &value, nil
}
