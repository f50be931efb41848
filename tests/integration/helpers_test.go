//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/bissquit/worknotes/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret1"

type user struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Status   int      `json:"status"`
	Hours    int      `json:"hours"`
	Notes    []string `json:"notes"`
	Token    string   `json:"token"`
}

type noteOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type note struct {
	ID    string     `json:"id"`
	Task  string     `json:"task"`
	Date  string     `json:"date"`
	Hours int        `json:"hours"`
	User  *noteOwner `json:"user"`
}

type errorBody struct {
	Error   string `json:"error"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// registerUser registers a regular user with a random username.
func registerUser(t *testing.T, prefix string) user {
	t.Helper()
	client := newTestClient(t)

	resp, err := client.POST("/api/users", map[string]interface{}{
		"username": testutil.RandomUsername(prefix),
		"password": testPassword,
		"hours":    8,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var u user
	testutil.DecodeJSON(t, resp, &u)
	return u
}

// createUserWithRole creates a user with role status, authenticated as admin.
func createUserWithRole(t *testing.T, prefix string, status int) user {
	t.Helper()
	admin := loginAdmin(t)

	resp, err := admin.POST("/api/users/manager", map[string]interface{}{
		"username": testutil.RandomUsername(prefix),
		"password": testPassword,
		"hours":    8,
		"status":   status,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var u user
	testutil.DecodeJSON(t, resp, &u)
	return u
}

func loginAdmin(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminUsername, adminPassword)
	return client
}

func loginAs(t *testing.T, u user) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, u.Username, testPassword)
	return client
}

// createNote creates a note and returns it.
func createNote(t *testing.T, client *testutil.Client, payload map[string]interface{}) note {
	t.Helper()

	resp, err := client.POST("/api/notes", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var n note
	testutil.DecodeJSON(t, resp, &n)
	return n
}

func listNotes(t *testing.T, client *testutil.Client) []note {
	t.Helper()

	resp, err := client.GET("/api/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var notes []note
	testutil.DecodeJSON(t, resp, &notes)
	return notes
}

func findNote(notes []note, id string) *note {
	for i := range notes {
		if notes[i].ID == id {
			return &notes[i]
		}
	}
	return nil
}
