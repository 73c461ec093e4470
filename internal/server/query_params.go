package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// queryInt reads an optional integer query parameter. Absent or blank is nil.
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalidParam(name)
	}
	return &parsed, nil
}

// queryBool reads an optional boolean query parameter ("true", "1", "false", "0", ...).
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalidParam(name)
	}
	return &parsed, nil
}

// pathRecordID reads the snowflake id of a stored record from the URL path.
func pathRecordID(c *gin.Context) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || parsed <= 0 {
		return 0, invalidParam("id")
	}
	return parsed, nil
}

func invalidParam(name string) error {
	return newValidationError(name, "invalid_"+name, "invalid "+name)
}
