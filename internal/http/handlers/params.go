package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/http/response"
)

// Optional distinguishes an absent JSON field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func badQuery(c *gin.Context, name string, err error) {
	response.RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid %s: %w", name, err))
}

// intQuery reads a positive integer query parameter, def when absent.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		badQuery(c, name, errors.New("must be a positive integer"))
		return 0, false
	}
	return n, true
}

func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		badQuery(c, name, err)
		return nil, false
	}
	return &b, true
}

func pageQuery(c *gin.Context) (query.Page, bool) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return query.Page{}, false
	}
	perPage, ok := intQuery(c, "per_page", query.DefaultPerPage)
	if !ok {
		return query.Page{}, false
	}
	return query.Page{Page: page, PerPage: perPage}.Normalize(), true
}

// listQuery accepts repeated and comma-separated values.
func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// expectedVersion takes the If-Match header over a body version.
func expectedVersion(c *gin.Context, bodyVersion int) (int, bool) {
	raw := strings.Trim(strings.TrimPrefix(strings.TrimSpace(c.GetHeader("If-Match")), "W/"), `"`)
	if raw == "" {
		return bodyVersion, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		badQuery(c, "If-Match", errors.New("must be a version number"))
		return 0, false
	}
	return n, true
}

func setETag(c *gin.Context, version int) {
	if version > 0 {
		c.Header("ETag", fmt.Sprintf(`W/"%d"`, version))
	}
}
