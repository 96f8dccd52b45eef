package postgres

import (
	"context"
	"database/sql"

	"conduit/internal/utils/databaseutils"

	"github.com/mdobak/go-xerrors"
)

// GetTags returns the distinct set of tags across all articles' tag lists.
func (r *Repository) GetTags(ctx context.Context) ([]string, error) {
	const selectSQL = `
		SELECT DISTINCT tag.tag
		FROM (SELECT jsonb_array_elements_text(tag_list) AS tag FROM articles) AS tag
	`

	tags, err := databaseutils.ExecuteQuery(r.sqlTemplate, ctx, selectSQL, func(rows *sql.Rows) (string, error) {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return "", xerrors.New(err)
		}
		return tag, nil
	})
	if err != nil {
		return nil, xerrors.New(err)
	}

	return tags, nil
}
