package query

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultLimit = 30
	maxLimit     = 100
)

// List carries the standard list-endpoint parameters: page, limit,
// q (term search), sort (column, "-" prefix for descending) and
// fields (response projection).
type List struct {
	Page   int
	Limit  int
	Q      string
	Sort   string
	Fields []string
}

// ParseList reads the standard list parameters from the request.
func ParseList(c *gin.Context) List {
	q := List{Page: 1, Limit: defaultLimit}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		if limit > maxLimit {
			limit = maxLimit
		}
		q.Limit = limit
	}
	q.Q = strings.TrimSpace(c.Query("q"))
	q.Sort = strings.TrimSpace(c.Query("sort"))
	if fields := strings.TrimSpace(c.Query("fields")); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Fields = append(q.Fields, f)
			}
		}
	}
	return q
}

// Apply adds pagination and sorting to a gorm query. Only columns in
// sortable are honored, so clients cannot order by arbitrary SQL.
func (q List) Apply(db *gorm.DB, sortable map[string]string) *gorm.DB {
	db = db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)

	if q.Sort != "" {
		dir := "ASC"
		name := q.Sort
		if strings.HasPrefix(name, "-") {
			dir = "DESC"
			name = name[1:]
		}
		if col, ok := sortable[name]; ok {
			db = db.Order(col + " " + dir)
		}
	}
	return db
}

// Search adds a LIKE filter over the given columns when q is set.
func (q List) Search(db *gorm.DB, columns ...string) *gorm.DB {
	if q.Q == "" || len(columns) == 0 {
		return db
	}
	term := "%" + strings.ToLower(q.Q) + "%"
	clause := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		clause[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = term
	}
	return db.Where(strings.Join(clause, " OR "), args...)
}

// Projects reports whether the field list is empty or contains name,
// letting handlers skip fields the client did not ask for.
func (q List) Projects(name string) bool {
	if len(q.Fields) == 0 {
		return true
	}
	for _, f := range q.Fields {
		if f == name {
			return true
		}
	}
	return false
}
