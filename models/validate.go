package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError is used to indicate an error with a specific input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned when an input struct fails validation.
type ValidationError struct {
	Fields []FieldError
}

func (err *ValidationError) Error() string {
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Validate checks v against its `validate` tags.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{}
	for _, fe := range vErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Error: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

// NewClass contains information needed to create a class.
type NewClass struct {
	Name string `json:"name" validate:"required"`
}

// NewStudent contains information needed to add a student to a class.
type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	ClassID string `json:"-" validate:"required"`
}

// NewSession is one recording pass: the session details and the status given
// to each student. Students missing from Statuses are recorded as FAIT.
type NewSession struct {
	ClassID     string            `json:"-" validate:"required"`
	Date        string            `json:"date" validate:"required,datetime=2006-01-02"`
	Description string            `json:"description"`
	Statuses    map[string]Status `json:"statuses" validate:"dive,keys,required,endkeys,oneof=FAIT NON_FAIT INCOMPLET ABSENT"`
}

// PeriodInput is the editable form of a SchoolPeriod.
type PeriodInput struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// RecordInput is one record sent to the bulk upsert.
type RecordInput struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
	Status    Status `json:"status" validate:"required,oneof=FAIT NON_FAIT INCOMPLET ABSENT"`
}

// CleanName trims a name and collapses inner whitespace.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
