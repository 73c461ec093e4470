package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"gorm.io/datatypes"
)

type chartKeyRequest struct {
	SolarDate string `json:"solar_date"`
	TimeIndex *int   `json:"time_index"`
	Gender    string `json:"gender"`
}

type horoscopeKeyRequest struct {
	chartKeyRequest
	TargetDate      string `json:"target_date"`
	TargetTimeIndex *int   `json:"target_time_index"`
}

type upsertChartRequest struct {
	chartKeyRequest
	FixLeap  *bool           `json:"fix_leap"`
	Language *string         `json:"language"`
	Payload  json.RawMessage `json:"payload"`
}

type upsertHoroscopeRequest struct {
	horoscopeKeyRequest
	Payload json.RawMessage `json:"payload"`
}

type existsResponse struct {
	Exists bool   `json:"exists"`
	ID     string `json:"id,omitempty"`
}

func (s *Server) ChartExists(c *gin.Context) {
	req, err := chartKeyFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	key, err := req.key()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	id, found, err := s.charts.Exists(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": exists(id, found)})
}

func (s *Server) UpsertChart(c *gin.Context) {
	var req upsertChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	key, err := req.key()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if req.Language != nil {
		language := strings.TrimSpace(*req.Language)
		if _, ok := supportedLanguages[language]; !ok {
			AbortWithError(c, newValidationError("language", "invalid_language", "language must be zh-CN, zh-TW or en-US"))
			return
		}
		req.Language = &language
	}

	id, err := s.charts.Upsert(c.Request.Context(), key, recorddomain.ChartChanges{
		FixLeap:  req.FixLeap,
		Language: req.Language,
		Payload:  payload(req.Payload),
	}, s.actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String()}})
}

func (s *Server) GetChart(c *gin.Context) {
	id, err := pathRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	row, err := s.charts.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (s *Server) HoroscopeExists(c *gin.Context) {
	chart, err := chartKeyFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetTimeIndex, err := queryInt(c, "target_time_index")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req := horoscopeKeyRequest{
		chartKeyRequest: chart,
		TargetDate:      c.Query("target_date"),
		TargetTimeIndex: targetTimeIndex,
	}
	key, err := req.key()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	id, found, err := s.horoscopes.Exists(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": exists(id, found)})
}

func (s *Server) UpsertHoroscope(c *gin.Context) {
	var req upsertHoroscopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	key, err := req.key()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	id, err := s.horoscopes.Upsert(c.Request.Context(), key, recorddomain.HoroscopeChanges{
		Payload: payload(req.Payload),
	}, s.actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String()}})
}

func (s *Server) GetHoroscope(c *gin.Context) {
	id, err := pathRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	row, err := s.horoscopes.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func chartKeyFromQuery(c *gin.Context) (chartKeyRequest, error) {
	timeIndex, err := queryInt(c, "time_index")
	if err != nil {
		return chartKeyRequest{}, err
	}
	return chartKeyRequest{
		SolarDate: c.Query("solar_date"),
		TimeIndex: timeIndex,
		Gender:    c.Query("gender"),
	}, nil
}

func (r chartKeyRequest) key() (recorddomain.ChartKey, error) {
	if r.TimeIndex == nil {
		return recorddomain.ChartKey{}, newValidationError("time_index", "required", "time_index is required")
	}
	return recorddomain.NewChartKey(r.SolarDate, *r.TimeIndex, r.Gender)
}

func (r horoscopeKeyRequest) key() (recorddomain.HoroscopeKey, error) {
	chart, err := r.chartKeyRequest.key()
	if err != nil {
		return recorddomain.HoroscopeKey{}, err
	}
	targetTimeIndex := 0
	if r.TargetTimeIndex != nil {
		targetTimeIndex = *r.TargetTimeIndex
	}
	return recorddomain.NewHoroscopeKey(chart, r.TargetDate, targetTimeIndex)
}

func exists(id snowflake.ID, found bool) existsResponse {
	if !found {
		return existsResponse{}
	}
	return existsResponse{Exists: true, ID: id.String()}
}

func payload(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}
