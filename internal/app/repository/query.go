package repository

import (
	"strings"

	"gorm.io/gorm"
)

// likePattern builds a case-insensitive substring pattern for use with
// LOWER(column) LIKE ?. It works on both PostgreSQL and SQLite.
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// paginate applies limit and offset to a fresh session of query so the
// same base query can also be counted.
func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	query = query.Session(&gorm.Session{})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
