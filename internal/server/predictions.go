package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	predictiondomain "github.com/Agrim06/TeraFarm/internal/prediction/domain"
)

// IssuePrediction records a new actuation instruction from the producer.
func (s *Server) IssuePrediction(c *gin.Context) {
	var req struct {
		WaterMM     float64 `json:"waterMM"`
		PumpTimeSec float64 `json:"pumpTimeSec"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrMalformedBody)
		return
	}

	prediction, err := s.predictionSvc.Issue(c.Request.Context(), c.Param("deviceId"), predictiondomain.IssueRequest{
		WaterMM:     req.WaterMM,
		PumpTimeSec: req.PumpTimeSec,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "prediction": prediction})
}

// FetchActivePrediction hands the device its active instruction. The read
// is side-effect-free: a device that polls twice sees the same triple until
// it acknowledges or a newer prediction supersedes it.
func (s *Server) FetchActivePrediction(c *gin.Context) {
	prediction, err := s.deliverySvc.FetchActive(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		if errors.Is(err, predictiondomain.ErrNoActivePrediction) {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": noActiveMessage})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"waterMM":      prediction.WaterMM,
		"pumpTimeSec":  prediction.PumpTimeSec,
		"predictionId": prediction.ID,
	})
}

// AcknowledgePrediction marks the active instruction consumed. Devices that
// echo the predictionId they fetched get an acknowledgement bound to that
// exact instruction; an empty body falls back to consuming the newest
// pending row.
func (s *Server) AcknowledgePrediction(c *gin.Context) {
	var req struct {
		PredictionID snowflake.ID `json:"predictionId"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrMalformedBody)
			return
		}
	}

	err := s.deliverySvc.Acknowledge(c.Request.Context(), c.Param("deviceId"), req.PredictionID)
	if err != nil {
		if errors.Is(err, predictiondomain.ErrNoActivePrediction) {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": noActiveMessage})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LatestPrediction is the dashboard's view of the newest prediction for a
// device regardless of status. Viewing never consumes.
func (s *Server) LatestPrediction(c *gin.Context) {
	prediction, err := s.predictionSvc.Latest(c.Request.Context(), c.Query("deviceId"))
	if err != nil {
		if errors.Is(err, predictiondomain.ErrNoPredictions) {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": prediction})
}

// PredictionHistory returns predictions newest-first with clamped limits.
func (s *Server) PredictionHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	predictions, err := s.predictionSvc.History(c.Request.Context(), predictiondomain.HistoryRequest{
		DeviceID: c.Query("deviceId"),
		Limit:    limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if predictions == nil {
		predictions = []predictiondomain.Prediction{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": predictions})
}
