package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations_Ordered(t *testing.T) {
	seen := make(map[int]bool)
	for i, m := range Migrations {
		assert.Equal(t, i+1, m.Version, "версии идут подряд")
		assert.False(t, seen[m.Version])
		seen[m.Version] = true
		assert.NotEmpty(t, m.Name)
		assert.Contains(t, m.SQL, "CREATE TABLE IF NOT EXISTS")
	}
}
