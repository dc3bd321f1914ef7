package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"news-impact/internal/docstore"
)

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid pipeline request")

const dateLayout = "20060102"

// Request describes one pipeline run
type Request struct {
	Companies  []string `validate:"min=1,dive,required"`
	StartDate  string   `validate:"required,datetime=20060102"`
	EndDate    string   `validate:"required,datetime=20060102"`
	WithPrices bool
	Collection string `validate:"required,collection"`
	MaxRecords int    `validate:"min=1,max=250"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("collection", func(fl validator.FieldLevel) bool {
		return docstore.ValidCollection(fl.Field().String())
	})
	return v
}

// Normalize trims company names and the collection in place
func (r *Request) Normalize() {
	for i, c := range r.Companies {
		r.Companies[i] = strings.TrimSpace(c)
	}
	r.Collection = strings.TrimSpace(r.Collection)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
}

// Validate checks the request without touching the network
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	start, end, err := r.Range()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRequest, r.EndDate, r.StartDate)
	}
	return nil
}

// Range parses the request dates as UTC midnights
func (r Request) Range() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, r.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", r.StartDate, err)
	}
	end, err := time.ParseInLocation(dateLayout, r.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", r.EndDate, err)
	}
	return start, end, nil
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		case "datetime":
			parts = append(parts, field+" must be YYYYMMDD")
		case "collection":
			parts = append(parts, fmt.Sprintf("%s %q must start with a letter or underscore and contain only letters, digits and underscores", field, fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
