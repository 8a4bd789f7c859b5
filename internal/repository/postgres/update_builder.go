package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/intake-api/pkg/validator"
)

// ErrNoChanges means no settable field survived; nothing must be sent.
var ErrNoChanges = errors.New("no changes requested")

// Statement is a query with its positional arguments.
type Statement struct {
	Query string
	Args  []interface{}
}

// BuildUpdate assembles a single UPDATE for the provided fields. Fields are
// taken in the order given. NotProvided values, unknown names and repeated
// names after the first are skipped. The id is always the last argument.
func BuildUpdate(id int64, fields validator.Fields) (*Statement, error) {
	terms := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		if validator.IsNotProvided(f.Value) || seen[f.Name] {
			continue
		}
		col, ok := StorageColumn(f.Name)
		if !ok {
			continue
		}
		seen[f.Name] = true
		args = append(args, f.Value)
		terms = append(terms, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if len(terms) == 0 {
		return nil, ErrNoChanges
	}

	terms = append(terms, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		patientsTable, strings.Join(terms, ", "), len(args), projectionSQL)

	return &Statement{Query: query, Args: args}, nil
}
