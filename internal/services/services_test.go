package services

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newUser(t *testing.T, st *store.Store, username string, level models.AccessLevel) *models.User {
	t.Helper()
	u := &models.User{Username: username, Name: username, Level: level}
	require.NoError(t, st.Users().Create(context.Background(), u))
	return u
}
