package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
	"github.com/smallbiznis/astrolabe/internal/envelope"
	obslogger "github.com/smallbiznis/astrolabe/internal/observability/logger"
	recorddomain "github.com/smallbiznis/astrolabe/internal/record/domain"
	"github.com/smallbiznis/astrolabe/pkg/solardate"
)

const (
	HeaderActor = "X-Actor"

	defaultLanguage = "zh-CN"
)

var supportedLanguages = map[string]struct{}{
	"zh-CN": {},
	"zh-TW": {},
	"en-US": {},
}

type natalRequest struct {
	SolarDate string `json:"solar_date"`
	TimeIndex *int   `json:"time_index"`
	Gender    string `json:"gender"`
	FixLeap   *bool  `json:"fix_leap"`
	Language  string `json:"language"`
}

type horoscopeRequest struct {
	natalRequest
	TargetDate      string `json:"target_date"`
	TargetTimeIndex *int   `json:"target_time_index"`
}

func (s *Server) NatalByQuery(c *gin.Context) {
	req, err := natalRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.natal(c, req)
}

func (s *Server) NatalByBody(c *gin.Context) {
	var req natalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.natal(c, req)
}

func (s *Server) HoroscopeByQuery(c *gin.Context) {
	natal, err := natalRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetTimeIndex, err := queryInt(c, "target_time_index")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.horoscope(c, horoscopeRequest{
		natalRequest:    natal,
		TargetDate:      c.Query("target_date"),
		TargetTimeIndex: targetTimeIndex,
	})
}

func (s *Server) HoroscopeByBody(c *gin.Context) {
	var req horoscopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.horoscope(c, req)
}

func (s *Server) natal(c *gin.Context, req natalRequest) {
	params, err := req.params()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := s.chartSvc.Natal(c.Request.Context(), params, actorFrom(c))
	s.respond(c, out)
}

func (s *Server) horoscope(c *gin.Context, req horoscopeRequest) {
	params, err := req.params()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := s.chartSvc.Complete(c.Request.Context(), params, actorFrom(c))
	s.respond(c, out)
}

// respond always answers 200; the envelope carries the outcome.
func (s *Server) respond(c *gin.Context, out chartdomain.Outcome) {
	env := envelope.FromOutcome(out, s.clock.Now())
	c.Set(obslogger.ContextKeyEnvelopeStatus, string(env.Status))
	c.JSON(http.StatusOK, env)
}

func natalRequestFromQuery(c *gin.Context) (natalRequest, error) {
	timeIndex, err := queryInt(c, "time_index")
	if err != nil {
		return natalRequest{}, err
	}
	fixLeap, err := queryBool(c, "fix_leap")
	if err != nil {
		return natalRequest{}, err
	}

	return natalRequest{
		SolarDate: c.Query("solar_date"),
		TimeIndex: timeIndex,
		Gender:    c.Query("gender"),
		FixLeap:   fixLeap,
		Language:  c.Query("language"),
	}, nil
}

func (r natalRequest) params() (chartdomain.NatalParams, error) {
	solarDate := strings.TrimSpace(r.SolarDate)
	if solarDate == "" {
		return chartdomain.NatalParams{}, newValidationError("solar_date", "required", "solar_date is required")
	}
	if _, err := solardate.Parse(solarDate); err != nil {
		return chartdomain.NatalParams{}, newValidationError("solar_date", "invalid_solar_date", "solar_date must be YYYY-M-D")
	}

	if r.TimeIndex == nil {
		return chartdomain.NatalParams{}, newValidationError("time_index", "required", "time_index is required")
	}
	if *r.TimeIndex < recorddomain.MinTimeIndex || *r.TimeIndex > recorddomain.MaxTimeIndex {
		return chartdomain.NatalParams{}, newValidationError("time_index", "invalid_time_index", "time_index must be between 0 and 12")
	}

	gender, err := recorddomain.NormalizeGender(r.Gender)
	if err != nil {
		return chartdomain.NatalParams{}, newValidationError("gender", "invalid_gender", "gender must be male or female")
	}

	language := strings.TrimSpace(r.Language)
	if language == "" {
		language = defaultLanguage
	}
	if _, ok := supportedLanguages[language]; !ok {
		return chartdomain.NatalParams{}, newValidationError("language", "invalid_language", "language must be zh-CN, zh-TW or en-US")
	}

	fixLeap := true
	if r.FixLeap != nil {
		fixLeap = *r.FixLeap
	}

	return chartdomain.NatalParams{
		SolarDate: solarDate,
		TimeIndex: *r.TimeIndex,
		Gender:    gender,
		FixLeap:   fixLeap,
		Language:  language,
	}, nil
}

func (r horoscopeRequest) params() (chartdomain.HoroscopeParams, error) {
	natal, err := r.natalRequest.params()
	if err != nil {
		return chartdomain.HoroscopeParams{}, err
	}

	targetDate := strings.TrimSpace(r.TargetDate)
	if targetDate == "" {
		return chartdomain.HoroscopeParams{}, newValidationError("target_date", "required", "target_date is required")
	}
	if _, err := solardate.Parse(targetDate); err != nil {
		return chartdomain.HoroscopeParams{}, newValidationError("target_date", "invalid_target_date", "target_date must be YYYY-M-D")
	}

	targetTimeIndex := 0
	if r.TargetTimeIndex != nil {
		targetTimeIndex = *r.TargetTimeIndex
	}
	if targetTimeIndex < recorddomain.MinTimeIndex || targetTimeIndex > recorddomain.MaxTimeIndex {
		return chartdomain.HoroscopeParams{}, newValidationError("target_time_index", "invalid_target_time_index", "target_time_index must be between 0 and 12")
	}

	return chartdomain.HoroscopeParams{
		Natal:           natal,
		TargetDate:      targetDate,
		TargetTimeIndex: targetTimeIndex,
	}, nil
}

func actorFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(HeaderActor))
}

func (s *Server) actor(c *gin.Context) string {
	if actor := actorFrom(c); actor != "" {
		return actor
	}
	return s.cfg.DefaultActor
}
