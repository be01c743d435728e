package clause

// fixture implements Schema for generator tests without a database.
type fixture struct {
	columns   map[string][]string
	generated map[string][]string
}

func (f *fixture) IsValidColumn(table, column string) bool {
	for _, c := range f.columns[table] {
		if c == column {
			return true
		}
	}
	return false
}

func (f *fixture) IsGeneratedColumn(table, column string) bool {
	for _, c := range f.generated[table] {
		if c == column {
			return true
		}
	}
	return false
}

func usersFixture() *fixture {
	return &fixture{
		columns: map[string][]string{
			"users": {"id", "name", "email", "status", "age", "full_name"},
		},
		generated: map[string][]string{
			"users": {"full_name"},
		},
	}
}
