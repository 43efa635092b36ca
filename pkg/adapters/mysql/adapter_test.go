package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
)

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name:     "defaults",
			config:   adapter.Config{Database: "tutorial"},
			expected: "tcp(127.0.0.1:3306)/tutorial?parseTime=true",
		},
		{
			name: "credentials and host",
			config: adapter.Config{
				Host: "db.local", Port: 3307, Database: "tutorial",
				Username: "root", Password: "pw",
			},
			expected: "root:pw@tcp(db.local:3307)/tutorial?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := buildMySQLDSN(tt.config)
			assert.Equal(t, tt.expected, dsn)

			parsed, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.True(t, parsed.ParseTime)
		})
	}
}

func TestBuildMySQLDSN_PassesOptions(t *testing.T) {
	dsn := buildMySQLDSN(adapter.Config{
		Database: "tutorial",
		Options:  map[string]string{"charset": "utf8mb4", "ansi_quotes": "true"},
	})
	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
	assert.NotContains(t, dsn, "ansi_quotes")
}

func TestAdapter_ErrorCode(t *testing.T) {
	adp := New(nil)
	err := fmt.Errorf("failed to execute SQL: %w", &mysql.MySQLError{Number: 1146, Message: "Table 'tutorial.staff' doesn't exist"})
	assert.Equal(t, "1146", adp.ErrorCode(err))
	assert.Equal(t, "", adp.ErrorCode(errors.New("plain")))
}

func TestAdapter_InitSession(t *testing.T) {
	tests := []struct {
		name      string
		options   map[string]string
		expectSQL bool
	}{
		{name: "default leaves sql_mode alone", options: nil, expectSQL: false},
		{name: "ansi quotes enabled", options: map[string]string{"ansi_quotes": "true"}, expectSQL: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			if tt.expectSQL {
				mock.ExpectExec("SET SESSION sql_mode").WillReturnResult(sqlmock.NewResult(0, 0))
			}

			adp := New(nil)
			adp.DB = db
			adp.Cfg = adapter.Config{Options: tt.options}

			s, err := adapter.OpenSession(context.Background(), adp)
			require.NoError(t, err)
			require.NoError(t, s.Close())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
