package httpserver

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	apperrors "github.com/nine420421/bilibili-sentiment-analysis/internal/platform/errors"
)

const dateLayout = "2006-01-02"

// requestValidator adapts validator/v10 to echo.Validator. Field names in
// messages are the query parameter names.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("labellist", validateLabelList)
	return &requestValidator{validate: v}
}

func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ValidationError("invalid request").WithCause(err)
	}

	messages := make([]string, 0, len(fieldErrs))
	structured := apperrors.ValidationError("")
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
		structured.WithField(fe.Field(), fe.Value())
	}
	structured.Message = strings.Join(messages, "; ")
	return structured
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", e.Field())
	case "number":
		return fmt.Sprintf("%s must be a non-negative integer", e.Field())
	case "labellist":
		return fmt.Sprintf("%s must be a comma separated list of positive, negative, neutral", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

func validateLabelList(fl validator.FieldLevel) bool {
	_, err := parseLabels(fl.Field().String())
	return err == nil
}

func parseLabels(raw string) ([]domain.Label, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var labels []domain.Label
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		label, err := domain.ParseLabel(part)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// filterQuery is the comment filter shared by every dataset view.
type filterQuery struct {
	Labels   string `query:"labels" validate:"omitempty,labellist"`
	MinLikes string `query:"min_likes" validate:"omitempty,number"`
	MaxLikes string `query:"max_likes" validate:"omitempty,number"`
	Since    string `query:"since" validate:"omitempty,datetime=2006-01-02"`
	Until    string `query:"until" validate:"omitempty,datetime=2006-01-02"`
}

type wordsQuery struct {
	filterQuery
	Label    string `query:"label" validate:"omitempty,oneof=all positive negative neutral"`
	Viz      string `query:"viz" validate:"omitempty,oneof=bar importance heatmap polar cloud"`
	MaxWords int    `query:"max_words" validate:"omitempty,min=10,max=50"`
}

type commentsQuery struct {
	filterQuery
	Sort    string `query:"sort" validate:"omitempty,oneof=default likes score time"`
	Page    int    `query:"page" validate:"omitempty,min=1"`
	PerPage int    `query:"per_page" validate:"omitempty,min=1,max=100"`
}

// bindQuery binds query parameters into q and validates it.
func bindQuery(c echo.Context, q any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, q); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Internal != nil {
			err = httpErr.Internal
		}
		return apperrors.ValidationError("invalid query parameters").WithCause(err)
	}
	return c.Validate(q)
}

func (q filterQuery) toFilter() (domain.CommentFilter, error) {
	var f domain.CommentFilter
	var err error

	if f.Labels, err = parseLabels(q.Labels); err != nil {
		return f, apperrors.ValidationError(err.Error()).WithField("labels", q.Labels)
	}
	if f.MinLikes, err = optionalInt(q.MinLikes); err != nil {
		return f, apperrors.ValidationError("min_likes is out of range").WithField("min_likes", q.MinLikes)
	}
	if f.MaxLikes, err = optionalInt(q.MaxLikes); err != nil {
		return f, apperrors.ValidationError("max_likes is out of range").WithField("max_likes", q.MaxLikes)
	}
	if f.MinLikes != nil && f.MaxLikes != nil && *f.MinLikes > *f.MaxLikes {
		return f, apperrors.ValidationError("min_likes must not exceed max_likes").
			WithField("min_likes", *f.MinLikes).
			WithField("max_likes", *f.MaxLikes)
	}
	if f.Since, err = optionalDate(q.Since); err != nil {
		return f, apperrors.ValidationError("since must be a date (YYYY-MM-DD)").WithField("since", q.Since)
	}
	if f.Until, err = optionalDate(q.Until); err != nil {
		return f, apperrors.ValidationError("until must be a date (YYYY-MM-DD)").WithField("until", q.Until)
	}
	if f.Since != nil && f.Until != nil && f.Until.Before(*f.Since) {
		return f, apperrors.ValidationError("until must not be before since").
			WithField("since", q.Since).
			WithField("until", q.Until)
	}
	return f, nil
}

func optionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (q wordsQuery) toRequest() (app.WordViewRequest, error) {
	filter, err := q.toFilter()
	if err != nil {
		return app.WordViewRequest{}, err
	}

	req := app.WordViewRequest{
		Filter:   filter,
		View:     domain.ParseWordView(q.Viz),
		MaxWords: q.MaxWords,
	}
	if q.Label != "" && q.Label != "all" {
		label, err := domain.ParseLabel(q.Label)
		if err != nil {
			return app.WordViewRequest{}, apperrors.ValidationError(err.Error()).WithField("label", q.Label)
		}
		req.Label = &label
	}
	return req, nil
}

func (q commentsQuery) toRequest() (app.BrowseRequest, error) {
	filter, err := q.toFilter()
	if err != nil {
		return app.BrowseRequest{}, err
	}
	return app.BrowseRequest{
		Filter:  filter,
		Sort:    domain.ParseSortOrder(q.Sort),
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}
