package db

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjudge-oj/useradmin/config"
)

func TestURL(t *testing.T) {
	raw := URL(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "admin",
		Password: "p@ss/word",
		DBName:   "gallery",
		UseSSL:   true,
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "admin", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", password)
	assert.Equal(t, "/gallery", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestURLDisablesSSLByDefault(t *testing.T) {
	u, err := url.Parse(URL(config.DatabaseConfig{Host: "localhost", Port: 5432, DBName: "gallery"}))
	require.NoError(t, err)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
