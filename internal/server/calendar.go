package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/astrolabe/internal/calendar"
	"go.uber.org/zap"
)

type monthDaysRequest struct {
	Date string `json:"date"`
}

func (s *Server) MonthDaysByQuery(c *gin.Context) {
	s.monthDays(c, c.Query("date"))
}

func (s *Server) MonthDaysByBody(c *gin.Context) {
	var req monthDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	s.monthDays(c, req.Date)
}

func (s *Server) monthDays(c *gin.Context, date string) {
	month, err := calendar.MonthDays(date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Debug("month days resolved", zap.String("date", date), zap.Int("count", month.Count))
	c.JSON(http.StatusOK, month)
}
