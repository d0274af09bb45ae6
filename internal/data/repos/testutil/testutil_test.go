package testutil

import "testing"

func TestSQLiteMigrates(t *testing.T) {
	db := SQLite(t)
	for _, table := range []string{"assessment_session", "assessment_question", "assessment_question_concept"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}
