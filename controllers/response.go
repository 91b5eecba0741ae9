package controllers

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collegelover/college-lover-api/middleware"
	"github.com/collegelover/college-lover-api/services"
	"github.com/collegelover/college-lover-api/utils"
)

// ok writes a success envelope with the payload keys merged in.
func ok(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// paramID parses a path uuid. Malformed ids resolve to nothing, so they are
// reported as not found.
func paramID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.Error(utils.NewNotFoundError("%s not found", resource))
		return uuid.Nil, false
	}
	return id, true
}

func actor(c *gin.Context) (services.Actor, bool) {
	a, found := middleware.CurrentActor(c)
	if !found {
		c.Error(utils.NewAuthError("Not authorized to access this route"))
	}
	return a, found
}

// queryInt reads the leading integer of a query value, so "2.5" is 2 and
// "3abc" is 3. Values without digits read as 0. Values past the int range
// saturate.
func queryInt(c *gin.Context, key string) int {
	s := strings.TrimSpace(c.Query(key))
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	switch {
	case err != nil && neg:
		return math.MinInt
	case err != nil:
		return math.MaxInt
	case neg:
		return -n
	}
	return n
}

// flexInt decodes a JSON number or a numeric string.
type flexInt struct {
	Value *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			f.Value = nil
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return utils.NewValidationError("%q is not a number", s)
		}
		f.Value = &n
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v := int(n)
	f.Value = &v
	return nil
}

// flexString decodes a JSON string or number as text.
type flexString struct {
	Value *string
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.Value = &s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	s = n.String()
	f.Value = &s
	return nil
}

// stringList decodes either a JSON array of strings or a single string.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*l = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	if many == nil {
		many = []string{}
	}
	*l = many
	return nil
}
