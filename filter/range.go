package filter

import "strings"

// Range 范围条件，未设置的边界忽略
type Range struct {
	Column string
	Gt     any
	Gte    any
	Lt     any
	Lte    any
}

func (q *Range) ToSQL() (string, []any, error) {
	if err := checkColumn(q.Column); err != nil {
		return "", nil, err
	}

	var conditions []string
	var args []any
	for _, bound := range []struct {
		op    string
		value any
	}{
		{">", q.Gt},
		{">=", q.Gte},
		{"<", q.Lt},
		{"<=", q.Lte},
	} {
		if bound.value != nil {
			conditions = append(conditions, q.Column+" "+bound.op+" ?")
			args = append(args, bound.value)
		}
	}
	return strings.Join(conditions, " AND "), args, nil
}
