package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		cmd       string
		args      []string
		isCommand bool
	}{
		{"восклицательный знак", "!одобрить @masha посуда", "одобрить", []string{"@masha", "посуда"}, true},
		{"точка", ".рейтинг", "рейтинг", nil, true},
		{"слэш с именем бота", "/help@credibility_bot", "help", nil, true},
		{"регистр", "!ОБМЕН @masha 1000", "обмен", []string{"@masha", "1000"}, true},
		{"пробелы", "  !  минуты   ", "минуты", nil, true},
		{"обычный текст", "привет", "", nil, false},
		{"только префикс", "!", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCommand, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}
