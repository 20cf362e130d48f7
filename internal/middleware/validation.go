package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apiv1 "schoolpulse/pkg/contracts/api/v1"
)

// RegionParam is the repeated query parameter carrying the selection
const RegionParam = "region"

// RequestValidator binds query and path parameters into request contracts and
// validates them with struct tags. Failures are returned as
// validator.ValidationErrors, which errors.ErrorHandler renders as 400.
type RequestValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRequestValidator creates a validator with the custom region rule registered
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("region", isRegionName); err != nil {
		panic(fmt.Sprintf("register region validation: %v", err))
	}

	// Report the wire name of the offending field
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "param", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return &RequestValidator{
		validate: v,
		logger:   logger.With(slog.String("component", "request_validator")),
	}
}

// Struct validates any tagged struct
func (v *RequestValidator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

// DashboardRequest reads the region selection from the query string. Blank
// and repeated entries are dropped; an absent parameter means every region.
func (v *RequestValidator) DashboardRequest(r *http.Request) (apiv1.DashboardRequest, error) {
	req := apiv1.DashboardRequest{Regions: regionsFromQuery(r)}
	if err := v.validate.Struct(req); err != nil {
		v.logger.DebugContext(r.Context(), "invalid dashboard request",
			slog.Int("regions", len(req.Regions)),
			slog.String("error", err.Error()))
		return req, err
	}
	return req, nil
}

// ExportRequest reads the format path parameter and the region selection
func (v *RequestValidator) ExportRequest(r *http.Request) (apiv1.ExportRequest, error) {
	req := apiv1.ExportRequest{
		DashboardRequest: apiv1.DashboardRequest{Regions: regionsFromQuery(r)},
		Format:           strings.ToLower(strings.TrimSpace(chi.URLParam(r, "format"))),
	}
	if err := v.validate.Struct(req); err != nil {
		v.logger.DebugContext(r.Context(), "invalid export request",
			slog.String("format", req.Format),
			slog.String("error", err.Error()))
		return req, err
	}
	return req, nil
}

// regionsFromQuery trims and deduplicates the selection so the max rule
// counts distinct regions, as the service does.
func regionsFromQuery(r *http.Request) []string {
	raw := r.URL.Query()[RegionParam]
	regions := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		regions = append(regions, s)
	}
	return regions
}

// isRegionName rejects invalid UTF-8 and control characters
func isRegionName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
