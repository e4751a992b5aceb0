package httpserver

import (
	"log/slog"
	"net/url"

	"github.com/labstack/echo/v4"
)

// Session keys
const (
	sessionKeyFilter   = "filter"
	sessionKeyLabel    = "words_label"
	sessionKeyViz      = "words_viz"
	sessionKeyMaxWords = "words_max"
	sessionKeySort     = "comments_sort"
	sessionKeyPerPage  = "comments_per_page"
)

// preferences are the dashboard selections remembered per browser. They
// only pre-fill controls; every API request carries its own parameters.
type preferences struct {
	Labels   string
	MinLikes string
	MaxLikes string
	Since    string
	Until    string
	Label    string
	Viz      string
	MaxWords int
	Sort     string
	PerPage  int
}

func defaultPreferences() preferences {
	return preferences{Label: "all", Viz: "bar", MaxWords: 25, Sort: "default", PerPage: 10}
}

func (s *Server) loadPreferences(c echo.Context) preferences {
	prefs := defaultPreferences()

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session.
		return prefs
	}

	if raw, ok := session.Values[sessionKeyFilter].(string); ok {
		if values, err := url.ParseQuery(raw); err == nil {
			prefs.Labels = values.Get("labels")
			prefs.MinLikes = values.Get("min_likes")
			prefs.MaxLikes = values.Get("max_likes")
			prefs.Since = values.Get("since")
			prefs.Until = values.Get("until")
		}
	}
	if v, ok := session.Values[sessionKeyLabel].(string); ok && v != "" {
		prefs.Label = v
	}
	if v, ok := session.Values[sessionKeyViz].(string); ok && v != "" {
		prefs.Viz = v
	}
	if v, ok := session.Values[sessionKeyMaxWords].(int); ok && v > 0 {
		prefs.MaxWords = v
	}
	if v, ok := session.Values[sessionKeySort].(string); ok && v != "" {
		prefs.Sort = v
	}
	if v, ok := session.Values[sessionKeyPerPage].(int); ok && v > 0 {
		prefs.PerPage = v
	}
	return prefs
}

func encodeFilter(q filterQuery) string {
	values := url.Values{}
	for key, value := range map[string]string{
		"labels":    q.Labels,
		"min_likes": q.MinLikes,
		"max_likes": q.MaxLikes,
		"since":     q.Since,
		"until":     q.Until,
	} {
		if value != "" {
			values.Set(key, value)
		}
	}
	return values.Encode()
}

// rememberWords stores a validated word-view selection. Failures only cost
// the pre-fill, so they are logged and ignored.
func (s *Server) rememberWords(c echo.Context, q wordsQuery) {
	s.remember(c, map[string]any{
		sessionKeyFilter:   encodeFilter(q.filterQuery),
		sessionKeyLabel:    q.Label,
		sessionKeyViz:      q.Viz,
		sessionKeyMaxWords: q.MaxWords,
	})
}

func (s *Server) rememberBrowse(c echo.Context, q commentsQuery) {
	s.remember(c, map[string]any{
		sessionKeyFilter:  encodeFilter(q.filterQuery),
		sessionKeySort:    q.Sort,
		sessionKeyPerPage: q.PerPage,
	})
}

func (s *Server) remember(c echo.Context, values map[string]any) {
	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	for k, v := range values {
		session.Values[k] = v
	}
	if err := session.Save(c.Request(), c.Response()); err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to save preferences", "error", err)
	}
}
