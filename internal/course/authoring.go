package course

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
)

// minimum content of an authored course
const (
	MinTechnicalItems = 5
	MinQuizItems      = 5
)

// ParseCourseJSON decode an uploaded course file
func ParseCourseJSON(r io.Reader) (*Course, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ErrInvalidCourseJSON
	}
	c := new(Course)
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCourseJSON, err)
	}
	// learner state never comes from an upload
	c.ID = ""
	c.Enrolled, c.Liked, c.Completed, c.Progress = false, false, false, 0
	return c, nil
}

// Validate check an authored course, returns nil when it is acceptable
func Validate(v validate.Validator, c *Course) *ValidationError {
	if fields := v.Struct(c); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fillTotals derive lesson and exercise counts when the author left them empty
func fillTotals(c *Course) {
	if c.TotalLessons == 0 {
		c.TotalLessons = len(c.TechnicalContent)
	}
	if c.TotalExercises == 0 {
		c.TotalExercises = len(c.MCQQuestions)
	}
}
